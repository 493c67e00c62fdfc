// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/kge/pkg/llm"
	"github.com/kraklabs/kge/pkg/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(store.Config{DataDir: t.TempDir(), ProjectID: "test-project"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newMockLLM(t *testing.T) llm.Provider {
	t.Helper()
	p, err := llm.NewProvider(llm.ProviderConfig{Type: "mock"})
	require.NoError(t, err)
	return p
}

func TestShouldSummarize_ThresholdCrossing(t *testing.T) {
	db := newTestDB(t)
	mgr := New(Config{DB: db, MaxActiveMessages: 3})
	ctx := context.Background()

	session, err := mgr.StartSession(ctx, "test-project")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := mgr.AppendMessage(ctx, session.ID, "user", "hello")
		require.NoError(t, err)
	}
	due, err := mgr.ShouldSummarize(ctx, session.ID)
	require.NoError(t, err)
	require.False(t, due, "exactly at the threshold should not yet be due")

	_, due, err = mgr.AppendMessage(ctx, session.ID, "user", "one more")
	require.NoError(t, err)
	require.True(t, due)
}

func TestParseSummary_FiveSections(t *testing.T) {
	text := "OVERVIEW:\nThe user asked about authentication.\n\n" +
		"TOPICS:\nauth, sessions\n\n" +
		"DECISIONS:\nnone\n\n" +
		"CODE_REFERENCES:\n`AuthService`\n\n" +
		"KEY_POINTS:\nTokens expire after 1 hour"

	s := parseSummary(text)
	require.Equal(t, "The user asked about authentication.", s.Overview)
	require.Equal(t, []string{"auth", "sessions"}, s.Topics)
	require.Nil(t, s.Decisions)
	require.Equal(t, []string{"`AuthService`"}, s.CodeReferences)
	require.Equal(t, []string{"Tokens expire after 1 hour"}, s.KeyPoints)
}

func TestSummarize_TransitionsSessionState(t *testing.T) {
	db := newTestDB(t)
	mgr := New(Config{DB: db, Provider: newMockLLM(t)})
	ctx := context.Background()

	session, err := mgr.StartSession(ctx, "test-project")
	require.NoError(t, err)
	_, _, err = mgr.AppendMessage(ctx, session.ID, "user", "how does the scheduler work")
	require.NoError(t, err)

	_, err = mgr.Summarize(ctx, session.ID)
	require.NoError(t, err)

	reloaded, err := db.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, store.SessionSummarized, reloaded.State)
}

func TestSummarize_NoProviderErrors(t *testing.T) {
	db := newTestDB(t)
	mgr := New(Config{DB: db})
	ctx := context.Background()

	session, err := mgr.StartSession(ctx, "test-project")
	require.NoError(t, err)

	_, err = mgr.Summarize(ctx, session.ID)
	require.Error(t, err)
}

func TestExtractDecisions_SkipsNonDecisionMessages(t *testing.T) {
	db := newTestDB(t)
	mgr := New(Config{DB: db, Provider: newMockLLM(t)})
	ctx := context.Background()

	session, err := mgr.StartSession(ctx, "test-project")
	require.NoError(t, err)
	_, _, err = mgr.AppendMessage(ctx, session.ID, "user", "what's the weather like")
	require.NoError(t, err)
	_, _, err = mgr.AppendMessage(ctx, session.ID, "assistant", "we decided to use SQLite for storage")
	require.NoError(t, err)

	decisions, err := mgr.ExtractDecisions(ctx, session.ID)
	require.NoError(t, err)
	// Only the second message should have triggered a provider call.
	require.LessOrEqual(t, len(decisions), 1)
}
