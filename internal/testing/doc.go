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

// Package testing provides test helpers for seeding and querying a
// pkg/store database, shared by the ingestion and store test suites.
//
// # Quick Start
//
// Use SetupTestDB to open a fresh, temp-directory-backed store.DB:
//
//	func TestMyFeature(t *testing.T) {
//	    db := testing.SetupTestDB(t)
//
//	    testing.InsertTestFunction(t, db, "HandleAuth", "auth.go", 10, 25)
//
//	    funcs := testing.QueryFunctions(t, db)
//	    require.Len(t, funcs, 1)
//	}
//
// # Seeding Test Data
//
//   - InsertTestFile: add a file entity
//   - InsertTestFunction / InsertTestFunctionWithSignature: add a function entity
//   - InsertTestType: add a type/struct/interface/class entity
//   - InsertTestDefines: link a file entity to a function or type it declares
//   - InsertTestCalls: link a caller function entity to a callee
//   - InsertTestImport: seed a module entity and the IMPORTS edge to it
//
// # Querying Test Data
//
//   - QueryFunctions, QueryFiles, QueryTypes: list seeded entities by type
package testing
