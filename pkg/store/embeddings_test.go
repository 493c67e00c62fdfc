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

func TestSearchEmbeddings_RanksByCosineSimilarity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	close_, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFunction, Name: "close", QualifiedName: "a.go#close"})
	require.NoError(t, err)
	far, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFunction, Name: "far", QualifiedName: "b.go#far"})
	require.NoError(t, err)

	require.NoError(t, db.UpsertEmbedding(ctx, close_.ID, "test-model", []float32{1, 0, 0}))
	require.NoError(t, db.UpsertEmbedding(ctx, far.ID, "test-model", []float32{0, 1, 0}))

	results, err := db.SearchEmbeddings(ctx, "test-project", "test-model", []float32{1, 0, 0}, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, close_.ID, results[0].EntityID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.InDelta(t, 0.0, results[1].Similarity, 1e-6)
}

func TestSearchEmbeddings_MinScoreFiltersLowSimilarity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ortho, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFunction, Name: "ortho", QualifiedName: "a.go#ortho"})
	require.NoError(t, err)
	require.NoError(t, db.UpsertEmbedding(ctx, ortho.ID, "test-model", []float32{0, 1, 0}))

	results, err := db.SearchEmbeddings(ctx, "test-project", "test-model", []float32{1, 0, 0}, SearchFilter{MinScore: 0.5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchEmbeddings_LimitTruncatesResults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		name := string(rune('a' + i))
		ent, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFunction, Name: name, QualifiedName: name + ".go#" + name})
		require.NoError(t, err)
		require.NoError(t, db.UpsertEmbedding(ctx, ent.ID, "test-model", []float32{1, 0, 0}))
	}

	results, err := db.SearchEmbeddings(ctx, "test-project", "test-model", []float32{1, 0, 0}, SearchFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchEmbeddings_FiltersByModelAndProject(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ent, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFunction, Name: "a", QualifiedName: "a.go#a"})
	require.NoError(t, err)
	require.NoError(t, db.UpsertEmbedding(ctx, ent.ID, "other-model", []float32{1, 0, 0}))

	results, err := db.SearchEmbeddings(ctx, "test-project", "test-model", []float32{1, 0, 0}, SearchFilter{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsertEmbedding_ReplacesPriorVectorForSamePair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ent, err := db.UpsertEntity(ctx, &Entity{ProjectID: "test-project", Type: EntityFunction, Name: "a", QualifiedName: "a.go#a"})
	require.NoError(t, err)

	require.NoError(t, db.UpsertEmbedding(ctx, ent.ID, "test-model", []float32{1, 0, 0}))
	require.NoError(t, db.UpsertEmbedding(ctx, ent.ID, "test-model", []float32{0, 1, 0}))

	got, err := db.GetEmbedding(ctx, ent.ID, "test-model")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got.Vector[0], 1e-6)
	assert.InDelta(t, 1.0, got.Vector[1], 1e-6)
}
