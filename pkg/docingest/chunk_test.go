// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package docingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSection_ShortContentIsSingleChunk(t *testing.T) {
	chunks := ChunkSection("sec-1", "short content", DefaultChunkConfig)
	require.Len(t, chunks, 1)
	assert.Equal(t, "sec-1", chunks[0].ID)
	assert.Equal(t, "short content", chunks[0].Content)
}

func TestChunkSection_SplitsOnParagraphBoundary(t *testing.T) {
	para := strings.Repeat("word ", 400)
	content := para + "\n\n" + para + "\n\n" + para

	chunks := ChunkSection("sec-1", content, DefaultChunkConfig)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, "sec-1", chunks[0].ID)
	assert.Equal(t, "sec-1-chunk-1", chunks[1].ID)
}

func TestChunkSection_OverlapPrependsPreviousTail(t *testing.T) {
	para := strings.Repeat("word ", 400)
	content := para + "\n\n" + para + "\n\n" + para

	chunks := ChunkSection("sec-1", content, DefaultChunkConfig)
	require.Greater(t, len(chunks), 1)
	tail := chunks[0].Content[len(chunks[0].Content)-DefaultChunkConfig.Overlap:]
	assert.True(t, strings.HasPrefix(chunks[1].Content, tail))
}

func TestChunkSection_MergesSmallTrailingChunkIntoSplitChunk(t *testing.T) {
	big := strings.Repeat("a ", 1000)
	small := "tiny tail"
	content := big + "\n\n" + big + "\n\n" + small

	// No overlap, so the trailing chunk stays below MinSize and must be
	// merged into "sec-1-chunk-1" rather than emitted on its own.
	cfg := DefaultChunkConfig
	cfg.Overlap = 0
	chunks := ChunkSection("sec-1", content, cfg)
	for _, c := range chunks {
		assert.NotEqual(t, small, c.Content)
	}
}

func TestIsChunkSuffixed(t *testing.T) {
	assert.True(t, isChunkSuffixed("sec-1-chunk-2"))
	assert.False(t, isChunkSuffixed("sec-1"))
}
