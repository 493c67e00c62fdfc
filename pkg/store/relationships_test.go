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

func TestUpsertRelationship_RejectsSelfLoop(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ent, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFile, Name: "a.go", QualifiedName: "a.go"})
	require.NoError(t, err)

	_, err = db.UpsertRelationship(ctx, &Relationship{ProjectID: "test-project", SourceID: ent.ID, TargetID: ent.ID, Relationship: RelContains})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalid))
}

func TestUpsertRelationship_RejectsUnknownType(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFile, Name: "a.go", QualifiedName: "a.go"})
	require.NoError(t, err)
	b, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFile, Name: "b.go", QualifiedName: "b.go"})
	require.NoError(t, err)

	_, err = db.UpsertRelationship(ctx, &Relationship{ProjectID: "test-project", SourceID: a.ID, TargetID: b.ID, Relationship: "BOGUS"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalid))
}

func TestUpsertRelationship_IdempotentOnUniqueTuple(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFile, Name: "a.go", QualifiedName: "a.go"})
	require.NoError(t, err)
	b, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFile, Name: "b.go", QualifiedName: "b.go"})
	require.NoError(t, err)

	first, err := db.UpsertRelationship(ctx, &Relationship{ProjectID: "test-project", SourceID: a.ID, TargetID: b.ID, Relationship: RelImports, Weight: 1})
	require.NoError(t, err)

	second, err := db.UpsertRelationship(ctx, &Relationship{ProjectID: "test-project", SourceID: a.ID, TargetID: b.ID, Relationship: RelImports, Weight: 2.5})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2.5, second.Weight)

	n, err := db.Count(ctx, "test-project", RelImports)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetRelationshipsFor_DirectionFiltersCorrectly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFile, Name: "a.go", QualifiedName: "a.go"})
	require.NoError(t, err)
	b, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFile, Name: "b.go", QualifiedName: "b.go"})
	require.NoError(t, err)

	_, err = db.UpsertRelationship(ctx, &Relationship{ProjectID: "test-project", SourceID: a.ID, TargetID: b.ID, Relationship: RelImports})
	require.NoError(t, err)

	out, err := db.GetRelationshipsFor(ctx, a.ID, DirectionOut)
	require.NoError(t, err)
	require.Len(t, out, 1)

	in, err := db.GetRelationshipsFor(ctx, a.ID, DirectionIn)
	require.NoError(t, err)
	assert.Empty(t, in)

	both, err := db.GetRelationshipsFor(ctx, b.ID, DirectionBoth)
	require.NoError(t, err)
	require.Len(t, both, 1)
}
