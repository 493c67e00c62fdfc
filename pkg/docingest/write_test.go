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

package docingest

import (
	"context"
	"testing"

	kgetest "github.com/kraklabs/kge/internal/testing"
	"github.com/kraklabs/kge/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkCodeReferences_WeightsInCodeBlockReferenceLower(t *testing.T) {
	db := kgetest.SetupTestDB(t)
	ctx := context.Background()

	kgetest.InsertTestFunction(t, db, "HandleAuth", "auth.go", 10, 25)

	doc := &Document{
		Sections: []Section{
			{ID: "sec-prose", Content: "See `HandleAuth` for the entry point."},
			{ID: "sec-code", Content: "Example:\n```go\nHandleAuth()\n```\n"},
		},
	}
	ids := map[string]string{"sec-prose": "sec-prose-store", "sec-code": "sec-code-store"}
	for parseID, storeID := range ids {
		_, err := db.UpsertEntity(ctx, &store.Entity{ProjectID: kgetest.TestProjectID, Type: store.EntitySection, Name: parseID, QualifiedName: storeID})
		require.NoError(t, err)
	}
	// Re-key ids to the entities' real store ids, since UpsertEntity may
	// assign its own id on first insert.
	proseEnt, err := db.GetEntity(ctx, kgetest.TestProjectID, store.EntityLookup{QualifiedName: "sec-prose-store"})
	require.NoError(t, err)
	codeEnt, err := db.GetEntity(ctx, kgetest.TestProjectID, store.EntityLookup{QualifiedName: "sec-code-store"})
	require.NoError(t, err)
	ids["sec-prose"] = proseEnt.ID
	ids["sec-code"] = codeEnt.ID

	count, err := linkCodeReferences(ctx, db, kgetest.TestProjectID, doc, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	proseRels, err := db.GetRelationshipsFor(ctx, proseEnt.ID, store.DirectionOut)
	require.NoError(t, err)
	require.Len(t, proseRels, 1)
	assert.Equal(t, 1.0, proseRels[0].Weight, "a prose reference outside any fenced block gets full weight")

	codeRels, err := db.GetRelationshipsFor(ctx, codeEnt.ID, store.DirectionOut)
	require.NoError(t, err)
	require.Len(t, codeRels, 1)
	assert.Equal(t, 0.8, codeRels[0].Weight, "a reference inside a fenced code block still links, at reduced weight")
}
