// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"context"
	"testing"

	kgetest "github.com/kraklabs/kge/internal/testing"
	"github.com/kraklabs/kge/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEntities_PersistsFilesFunctionsTypesAndEdges(t *testing.T) {
	db := kgetest.SetupTestDB(t)
	ctx := context.Background()
	batcher := NewBatcher(10)

	fileID := GenerateFileID("auth.go")
	fnID := GenerateFunctionID("auth.go", "HandleAuth", "", 10, 25, 0, 0)
	typeID := GenerateTypeID("auth.go", "Session", 1, 5)

	files := []FileEntity{{ID: fileID, Path: "auth.go", Hash: "abc123", Language: "go", Size: 1234}}
	functions := []FunctionEntity{{ID: fnID, Name: "HandleAuth", Signature: "func HandleAuth()", FilePath: "auth.go", StartLine: 10, EndLine: 25}}
	types := []TypeEntity{{ID: typeID, Name: "Session", Kind: "struct", FilePath: "auth.go", StartLine: 1, EndLine: 5}}
	imports := []ImportEntity{{FilePath: "auth.go", ImportPath: "net/http", IsExternal: true}}
	defines := []DefinesEdge{{FileID: fileID, FunctionID: fnID}}
	definesTypes := []DefinesTypeEdge{{FileID: fileID, TypeID: typeID}}

	counts, err := writeEntities(ctx, db, kgetest.TestProjectID, batcher, files, functions, types, imports, defines, definesTypes, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Entities) // file + function + type + import module
	assert.Equal(t, 3, counts.Relationships)

	gotFiles := kgetest.QueryFiles(t, db)
	require.Len(t, gotFiles, 1)
	assert.Equal(t, "auth.go", gotFiles[0].Name)

	gotFuncs := kgetest.QueryFunctions(t, db)
	require.Len(t, gotFuncs, 1)
	assert.Equal(t, "HandleAuth", gotFuncs[0].Name)

	rels, err := db.GetRelationshipsFor(ctx, gotFiles[0].ID, store.DirectionOut)
	require.NoError(t, err)
	require.Len(t, rels, 3)
}

func TestWriteEntities_SkipsCallsEdgeWhenCallerUnresolved(t *testing.T) {
	db := kgetest.SetupTestDB(t)
	ctx := context.Background()
	batcher := NewBatcher(10)

	fnID := GenerateFunctionID("main.go", "main", "", 1, 10, 0, 0)
	functions := []FunctionEntity{{ID: fnID, Name: "main", FilePath: "main.go", StartLine: 1, EndLine: 10}}
	calls := []CallsEdge{{CallerID: fnID, CalleeID: "func:unknown"}}

	counts, err := writeEntities(ctx, db, kgetest.TestProjectID, batcher, nil, functions, nil, nil, nil, nil, calls)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Entities)
	assert.Equal(t, 0, counts.Relationships, "unresolved callee should not produce an edge")
}
