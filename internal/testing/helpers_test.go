// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package testing

import (
	"context"
	"testing"

	"github.com/kraklabs/kge/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSetupTestDB verifies the test database is created correctly.
func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t)
	require.NotNil(t, db)

	funcs := QueryFunctions(t, db)
	assert.Empty(t, funcs, "should start with no functions")
}

// TestInsertTestFunction verifies function insertion.
func TestInsertTestFunction(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestFunction(t, db, "HandleAuth", "auth.go", 10, 25)

	funcs := QueryFunctions(t, db)
	require.Len(t, funcs, 1)
	assert.Equal(t, "HandleAuth", funcs[0].Name)
	assert.Equal(t, "auth.go", funcs[0].FilePath)
}

// TestInsertTestFunctionWithSignature verifies the signature is stored.
func TestInsertTestFunctionWithSignature(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestFunctionWithSignature(t, db, "HandleAuth", "func HandleAuth(w http.ResponseWriter, r *http.Request)", "auth.go", 10, 25)

	funcs := QueryFunctions(t, db)
	require.Len(t, funcs, 1)
	assert.Equal(t, "func HandleAuth(w http.ResponseWriter, r *http.Request)", funcs[0].Summary)
}

// TestInsertTestFile verifies file insertion.
func TestInsertTestFile(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestFile(t, db, "auth.go", "go", 1234)

	files := QueryFiles(t, db)
	require.Len(t, files, 1)
	assert.Equal(t, "auth.go", files[0].Name)
}

// TestInsertTestType verifies type insertion.
func TestInsertTestType(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestType(t, db, "UserService", "struct", "user.go", 10, 50)

	types := QueryTypes(t, db)
	require.Len(t, types, 1)
	assert.Equal(t, "UserService", types[0].Name)
	assert.Equal(t, "struct", types[0].Metadata["kind"])
}

// TestMultipleInserts verifies multiple entities can be inserted.
func TestMultipleInserts(t *testing.T) {
	db := SetupTestDB(t)

	InsertTestFunction(t, db, "Main", "main.go", 5, 10)
	InsertTestFunction(t, db, "Helper", "util.go", 15, 20)
	InsertTestFunction(t, db, "Process", "processor.go", 25, 35)

	funcs := QueryFunctions(t, db)
	require.Len(t, funcs, 3)
}

// TestEdgeInsertion verifies relationship edges can be inserted.
func TestEdgeInsertion(t *testing.T) {
	db := SetupTestDB(t)

	file := InsertTestFile(t, db, "main.go", "go", 100)
	mainFn := InsertTestFunction(t, db, "main", "main.go", 1, 10)
	helperFn := InsertTestFunction(t, db, "helper", "main.go", 12, 15)

	InsertTestDefines(t, db, file, mainFn)
	InsertTestCalls(t, db, mainFn, helperFn)
}

// TestInsertTestImport verifies the module entity and IMPORTS edge are seeded.
func TestInsertTestImport(t *testing.T) {
	db := SetupTestDB(t)

	file := InsertTestFile(t, db, "main.go", "go", 100)
	InsertTestImport(t, db, file, "fmt", false)

	rels, err := db.GetRelationshipsFor(context.Background(), file.ID, store.DirectionOut)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, store.RelImports, rels[0].Relationship)
}

// TestDBIsolation verifies each test gets an isolated database.
func TestDBIsolation(t *testing.T) {
	db1 := SetupTestDB(t)
	InsertTestFunction(t, db1, "Test1", "file1.go", 1, 10)

	db2 := SetupTestDB(t)
	assert.Empty(t, QueryFunctions(t, db2), "second database should be isolated from the first")

	assert.Len(t, QueryFunctions(t, db1), 1)
}
