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
)

// TestProjectID is the project id every helper in this package seeds
// entities under, so callers never need to thread one through.
const TestProjectID = "test-project"

// SetupTestDB opens a fresh store.DB in a per-test temp directory. The
// database is closed automatically when the test finishes.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    db := testing.SetupTestDB(t)
//	    testing.InsertTestFunction(t, db, "TestFunc", "test.go", 10, 20)
//	}
func SetupTestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.Open(store.Config{
		DataDir:   t.TempDir(),
		ProjectID: TestProjectID,
	})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// InsertTestFile seeds a file entity.
func InsertTestFile(t *testing.T, db *store.DB, path, language string, size int64) *store.Entity {
	t.Helper()

	ent, err := db.UpsertEntity(context.Background(), &store.Entity{
		ProjectID:     TestProjectID,
		Type:          store.EntityFile,
		Name:          path,
		QualifiedName: path,
		FilePath:      path,
		Metadata:      map[string]any{"language": language, "size": size},
	})
	if err != nil {
		t.Fatalf("failed to insert test file %s: %v", path, err)
	}
	return ent
}

// InsertTestFunction seeds a function entity with no recorded signature.
func InsertTestFunction(t *testing.T, db *store.DB, name, filePath string, startLine, endLine int) *store.Entity {
	t.Helper()
	return InsertTestFunctionWithSignature(t, db, name, "", filePath, startLine, endLine)
}

// InsertTestFunctionWithSignature seeds a function entity carrying an
// explicit signature, as stored in Entity.Summary.
func InsertTestFunctionWithSignature(t *testing.T, db *store.DB, name, signature, filePath string, startLine, endLine int) *store.Entity {
	t.Helper()

	ent, err := db.UpsertEntity(context.Background(), &store.Entity{
		ProjectID:     TestProjectID,
		Type:          store.EntityFunction,
		Name:          name,
		QualifiedName: filePath + "#" + name,
		Summary:       signature,
		FilePath:      filePath,
		StartLine:     startLine,
		EndLine:       endLine,
	})
	if err != nil {
		t.Fatalf("failed to insert test function %s: %v", name, err)
	}
	return ent
}

// InsertTestType seeds a type/struct/interface/class entity, mapping kind
// to the matching store.EntityType the way pkg/ingestion's writer does.
func InsertTestType(t *testing.T, db *store.DB, name, kind, filePath string, startLine, endLine int) *store.Entity {
	t.Helper()

	entType := store.EntityTypeAlias
	switch kind {
	case "interface":
		entType = store.EntityInterface
	case "class":
		entType = store.EntityClass
	}

	ent, err := db.UpsertEntity(context.Background(), &store.Entity{
		ProjectID:     TestProjectID,
		Type:          entType,
		Name:          name,
		QualifiedName: filePath + "#" + name,
		FilePath:      filePath,
		StartLine:     startLine,
		EndLine:       endLine,
		Metadata:      map[string]any{"kind": kind},
	})
	if err != nil {
		t.Fatalf("failed to insert test type %s: %v", name, err)
	}
	return ent
}

// InsertTestDefines seeds a DEFINES edge from a file entity to a
// function or type entity it declares.
func InsertTestDefines(t *testing.T, db *store.DB, file, defined *store.Entity) *store.Relationship {
	t.Helper()
	return insertTestRelationship(t, db, file, defined, store.RelDefines)
}

// InsertTestCalls seeds a CALLS edge from a caller function entity to a
// callee function entity.
func InsertTestCalls(t *testing.T, db *store.DB, caller, callee *store.Entity) *store.Relationship {
	t.Helper()
	return insertTestRelationship(t, db, caller, callee, store.RelCalls)
}

// InsertTestImport seeds a module entity for importPath and an IMPORTS
// edge from file to it, mirroring pkg/ingestion's import write path.
func InsertTestImport(t *testing.T, db *store.DB, file *store.Entity, importPath string, external bool) *store.Relationship {
	t.Helper()

	module, err := db.UpsertEntity(context.Background(), &store.Entity{
		ProjectID:     TestProjectID,
		Type:          store.EntityModule,
		Name:          importPath,
		QualifiedName: "module:" + importPath,
		Metadata:      map[string]any{"external": external},
	})
	if err != nil {
		t.Fatalf("failed to insert test import %s: %v", importPath, err)
	}
	return insertTestRelationship(t, db, file, module, store.RelImports)
}

func insertTestRelationship(t *testing.T, db *store.DB, source, target *store.Entity, kind store.RelationshipType) *store.Relationship {
	t.Helper()

	rel, err := db.UpsertRelationship(context.Background(), &store.Relationship{
		ProjectID:    TestProjectID,
		SourceID:     source.ID,
		TargetID:     target.ID,
		Relationship: kind,
	})
	if err != nil {
		t.Fatalf("failed to insert %s edge: %v", kind, err)
	}
	return rel
}

// QueryFunctions returns every function entity seeded so far.
func QueryFunctions(t *testing.T, db *store.DB) []store.Entity {
	t.Helper()
	return listByType(t, db, store.EntityFunction)
}

// QueryFiles returns every file entity seeded so far.
func QueryFiles(t *testing.T, db *store.DB) []store.Entity {
	t.Helper()
	return listByType(t, db, store.EntityFile)
}

// QueryTypes returns every type-alias entity seeded so far. Interfaces
// and classes are seeded under their own entity types and are not
// returned here.
func QueryTypes(t *testing.T, db *store.DB) []store.Entity {
	t.Helper()
	return listByType(t, db, store.EntityTypeAlias)
}

func listByType(t *testing.T, db *store.DB, entType store.EntityType) []store.Entity {
	t.Helper()

	ents, err := db.ListByType(context.Background(), TestProjectID, entType, 0)
	if err != nil {
		t.Fatalf("failed to list %s entities: %v", entType, err)
	}
	return ents
}
