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

func TestSession_CreateAppendAndListInFIFOOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s, err := db.CreateSession(ctx, "test-project")
	require.NoError(t, err)
	assert.Equal(t, SessionActive, s.State)

	_, err = db.AppendMessage(ctx, s.ID, "user", "first")
	require.NoError(t, err)
	_, err = db.AppendMessage(ctx, s.ID, "assistant", "second")
	require.NoError(t, err)

	msgs, err := db.ListMessages(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(1), msgs[0].Seq)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, int64(2), msgs[1].Seq)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestSetSessionState_UnknownSessionReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.SetSessionState(ctx, "missing", SessionArchived, "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestRecordDecision_ListedInCreationOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s, err := db.CreateSession(ctx, "test-project")
	require.NoError(t, err)

	_, err = db.RecordDecision(ctx, s.ID, "use RRF fusion")
	require.NoError(t, err)
	_, err = db.RecordDecision(ctx, s.ID, "cap context at 8000 tokens")
	require.NoError(t, err)

	decisions, err := db.ListDecisions(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, "use RRF fusion", decisions[0].Content)
	assert.Equal(t, "cap context at 8000 tokens", decisions[1].Content)
}

func TestLogQuery_DerivesSavedTotalsAndRoundTrips(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.LogQuery(ctx, QueryLog{
		ProjectID:          "test-project",
		RawQuery:           "how does auth work",
		Intent:             "explain",
		TokensRetrieved:    400,
		TokensEstimateFull: 4000,
		CostActual:         0.01,
		CostEstimateFull:   0.10,
		RelevanceScore:     0.82,
		ItemCount:          5,
		ItemTypes:          []string{"function", "file"},
		Strategies:         []string{"keyword", "semantic"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := db.GetQueryLog(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3600, got.TokensSaved)
	assert.InDelta(t, 0.09, got.CostSaved, 1e-9)
	assert.Equal(t, []string{"function", "file"}, got.ItemTypes)
	assert.Equal(t, []string{"keyword", "semantic"}, got.Strategies)
	assert.Nil(t, got.WasUseful)
}

func TestRecordFeedback_SetsWasUsefulAndRejectsUnknownID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.LogQuery(ctx, QueryLog{ProjectID: "test-project", RawQuery: "q"})
	require.NoError(t, err)

	require.NoError(t, db.RecordFeedback(ctx, id, true))

	got, err := db.GetQueryLog(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.WasUseful)
	assert.True(t, *got.WasUseful)

	err = db.RecordFeedback(ctx, "missing", false)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
}
