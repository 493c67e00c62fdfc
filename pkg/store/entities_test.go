// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{DataDir: t.TempDir(), ProjectID: "test-project"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertEntity_RepeatedCallsUpdateSameRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := db.UpsertEntity(ctx, &Entity{
		ProjectID: "test-project", Type: EntityFunction, Name: "Foo",
		QualifiedName: "file.go#Foo", Summary: "v1",
	})
	require.NoError(t, err)

	second, err := db.UpsertEntity(ctx, &Entity{
		ProjectID: "test-project", Type: EntityFunction, Name: "Foo",
		QualifiedName: "file.go#Foo", Summary: "v2",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.Summary)

	got, err := db.GetEntity(ctx, "test-project", EntityLookup{QualifiedName: "file.go#Foo"})
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Summary)
}

func TestGetEntity_NotFoundReturnsKindNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetEntity(ctx, "test-project", EntityLookup{QualifiedName: "missing"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestDeleteEntity_CascadesRelationshipsAndEmbeddings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFile, Name: "a.go", QualifiedName: "a.go"})
	require.NoError(t, err)
	b, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFunction, Name: "B", QualifiedName: "a.go#B"})
	require.NoError(t, err)

	_, err = db.UpsertRelationship(ctx, &Relationship{ProjectID: "test-project", SourceID: a.ID, TargetID: b.ID, Relationship: RelDefines})
	require.NoError(t, err)
	require.NoError(t, db.UpsertEmbedding(ctx, b.ID, "code", []float32{1, 0, 0}))

	require.NoError(t, db.DeleteEntity(ctx, "test-project", b.ID))

	rels, err := db.GetRelationshipsFor(ctx, b.ID, DirectionBoth)
	require.NoError(t, err)
	assert.Empty(t, rels)

	_, err = db.GetEmbedding(ctx, b.ID, "code")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestSearch_RanksNameMatchAboveContentMatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertEntity(ctx, &Entity{
		ProjectID: "test-project", Type: EntityFunction, Name: "other",
		QualifiedName: "a.go#other", Content: "mentions widget somewhere in the body",
	})
	require.NoError(t, err)
	_, err = db.UpsertEntity(ctx, &Entity{
		ProjectID: "test-project", Type: EntityFunction, Name: "widget",
		QualifiedName: "b.go#widget", Content: "unrelated",
	})
	require.NoError(t, err)

	results, err := db.Search(ctx, "test-project", "widget", SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "widget", results[0].Entity.Name)
	assert.Equal(t, "name", results[0].Field)
}

func TestListByType_FiltersAndOrdersNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityRequirement, Name: "req-a", QualifiedName: "doc.md#requirement-1"})
	require.NoError(t, err)
	_, err = db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityRequirement, Name: "req-b", QualifiedName: "doc.md#requirement-2"})
	require.NoError(t, err)
	_, err = db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFunction, Name: "notReq", QualifiedName: "a.go#notReq"})
	require.NoError(t, err)

	out, err := db.ListByType(ctx, "test-project", EntityRequirement, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, e := range out {
		assert.Equal(t, EntityRequirement, e.Type)
	}
}

func TestListByType_LimitTruncates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		name := string(rune('a' + i))
		_, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityRequirement, Name: name, QualifiedName: "doc.md#" + name})
		require.NoError(t, err)
	}

	out, err := db.ListByType(ctx, "test-project", EntityRequirement, 2)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
