// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package hyde

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/kge/pkg/llm"
	"github.com/kraklabs/kge/pkg/queryparse"
)

type fakeEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func newMockLLM(t *testing.T) llm.Provider {
	t.Helper()
	p, err := llm.NewProvider(llm.ProviderConfig{Type: "mock"})
	require.NoError(t, err)
	return p
}

func TestExpand_GateRejectsLiteralMention(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1, 2, 3}}
	e := New(Config{LLM: newMockLLM(t), Embedder: emb})

	parsed := queryparse.Parse("how does `Foo.Bar` work")
	result, err := e.Expand(context.Background(), "proj", "how does `Foo.Bar` work", parsed)
	require.NoError(t, err)
	assert.False(t, result.Used)
	assert.Equal(t, 1, emb.calls)
}

func TestExpand_GateRejectsShortQuery(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1}}
	e := New(Config{LLM: newMockLLM(t), Embedder: emb})

	parsed := queryparse.Parse("why?")
	result, err := e.Expand(context.Background(), "proj", "why?", parsed)
	require.NoError(t, err)
	assert.False(t, result.Used)
}

func TestExpand_NoLLMFallsBackDirectly(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{4, 5}}
	e := New(Config{Embedder: emb})

	parsed := queryparse.Parse("how does the scheduler balance load across workers")
	result, err := e.Expand(context.Background(), "proj", "how does the scheduler balance load across workers", parsed)
	require.NoError(t, err)
	assert.False(t, result.Used)
	assert.Equal(t, emb.vec, result.Vector)
}

func TestExpand_CachesByProjectAndNormalizedQuery(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1, 1}}
	e := New(Config{Embedder: emb})

	q := "how does authentication work across services"
	parsed := queryparse.Parse(q)

	first, err := e.Expand(context.Background(), "proj", q, parsed)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := e.Expand(context.Background(), "proj", q, parsed)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	// Only the first call should have touched the embedder.
	assert.Equal(t, 1, emb.calls)
}

func TestExpand_EmbedErrorFallsBackGracefully(t *testing.T) {
	emb := &fakeEmbedder{err: assert.AnError}
	e := New(Config{Embedder: emb})

	parsed := queryparse.Parse("plain keyword search text")
	_, err := e.Expand(context.Background(), "proj", "plain keyword search text", parsed)
	assert.Error(t, err)
}

func TestLRUEviction(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{0}}
	e := New(Config{Embedder: emb, CacheSize: 2})

	for i := 0; i < 3; i++ {
		q := queryparse.Parse([]string{"alpha query text here", "beta query text here", "gamma query text here"}[i])
		_, err := e.Expand(context.Background(), "proj", q.Raw, q)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, e.order.Len())
}
