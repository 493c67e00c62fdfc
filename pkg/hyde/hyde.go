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

// Package hyde implements Hypothetical Document Embeddings: for queries
// that look conceptual rather than literal, it asks an LLM to draft a
// plausible answer first, then embeds that answer in place of the raw
// query — a hypothetical answer tends to sit closer, in embedding space,
// to the real answer than the bare question does. A Result carries one
// vector: the hypothetical answer's embedding, or the literal query's on
// the fallback path; both are never returned together.
package hyde

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kraklabs/kge/pkg/ingestion"
	"github.com/kraklabs/kge/pkg/llm"
	"github.com/kraklabs/kge/pkg/queryparse"
)

// defaultGateIntents are the query intents HyDE is worth the extra LLM
// round trip for: open-ended questions where a literal keyword match is
// unlikely to be enough.
var defaultGateIntents = map[queryparse.Intent]bool{
	queryparse.IntentHow:     true,
	queryparse.IntentWhy:     true,
	queryparse.IntentExplain: true,
}

const minQueryLength = 10

// Expander drafts hypothetical answers and embeds them, caching results
// per (projectID, normalized query).
type Expander struct {
	llmProvider llm.Provider
	embedder    ingestion.EmbeddingProvider
	model       string
	logger      *slog.Logger

	mu       sync.Mutex
	cache    map[string]*list.Element
	order    *list.List
	capacity int
}

type cacheEntry struct {
	key    string
	result Result
}

// Result is the output of one Expand call.
type Result struct {
	Used        bool // true if a hypothetical document was generated and embedded
	Hypothetical string
	Vector       []float32
	FromCache    bool
}

// Config configures one Expander.
type Config struct {
	LLM       llm.Provider
	Embedder  ingestion.EmbeddingProvider
	Model     string // LLM model name for the hypothetical-answer draft
	CacheSize int    // default 256
	Logger    *slog.Logger
}

// New constructs an Expander. LLM may be nil: Expand then always falls
// back to direct embedding of the literal query.
func New(cfg Config) *Expander {
	cap := cfg.CacheSize
	if cap <= 0 {
		cap = 256
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{
		llmProvider: cfg.LLM,
		embedder:    cfg.Embedder,
		model:       cfg.Model,
		logger:      logger,
		cache:       map[string]*list.Element{},
		order:       list.New(),
		capacity:    cap,
	}
}

// Expand decides whether query is worth a HyDE pass (using parsed's
// intent and entity mentions as the heuristic gate), drafts and embeds a
// hypothetical answer when it is, and otherwise embeds the literal query
// directly. A cache hit short-circuits both the gate and the LLM call.
func (e *Expander) Expand(ctx context.Context, projectID, query string, parsed queryparse.ParsedQuery) (Result, error) {
	key := projectID + "\x00" + parsed.Normalized

	if cached, ok := e.get(key); ok {
		cached.FromCache = true
		return cached, nil
	}

	if !e.shouldExpand(parsed) {
		result, err := e.fallbackToDirectEmbed(ctx, query)
		if err == nil {
			e.put(key, result)
		}
		return result, err
	}

	hypothetical, err := e.draft(ctx, query, parsed)
	if err != nil {
		e.logger.Warn("hyde.draft.fallback", "error", err)
		return e.fallbackToDirectEmbed(ctx, query)
	}

	vec, err := e.embedder.Embed(ctx, hypothetical)
	if err != nil {
		e.logger.Warn("hyde.embed.fallback", "error", err)
		return e.fallbackToDirectEmbed(ctx, query)
	}

	result := Result{Used: true, Hypothetical: hypothetical, Vector: vec}
	e.put(key, result)
	return result, nil
}

// shouldExpand is the heuristic gate: long enough, no literal entity
// mentions (those are better served by a direct keyword/graph match), and
// an intent where a hypothetical answer plausibly helps.
func (e *Expander) shouldExpand(parsed queryparse.ParsedQuery) bool {
	if e.llmProvider == nil || e.embedder == nil {
		return false
	}
	if len(parsed.Normalized) < minQueryLength {
		return false
	}
	if len(parsed.EntityMentions) > 0 {
		return false
	}
	return defaultGateIntents[parsed.Intent]
}

func (e *Expander) draft(ctx context.Context, query string, parsed queryparse.ParsedQuery) (string, error) {
	prompt := fmt.Sprintf(
		"Write a short, plausible technical answer to the following question about a codebase. "+
			"Do not hedge or say you don't know; draft your best guess at what the answer would look like.\n\nQuestion: %s",
		query,
	)
	resp, err := e.llmProvider.Generate(ctx, llm.GenerateRequest{
		Prompt:      prompt,
		Model:       e.model,
		MaxTokens:   256,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("hyde: empty hypothetical document")
	}
	return text, nil
}

// fallbackToDirectEmbed embeds the literal query text, used whenever the
// gate fails or any step of the HyDE path errors.
func (e *Expander) fallbackToDirectEmbed(ctx context.Context, query string) (Result, error) {
	if e.embedder == nil {
		return Result{}, fmt.Errorf("hyde: no embedding provider configured")
	}
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return Result{}, err
	}
	return Result{Used: false, Vector: vec}, nil
}

func (e *Expander) get(key string) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	el, ok := e.cache[key]
	if !ok {
		return Result{}, false
	}
	e.order.MoveToFront(el)
	return el.Value.(*cacheEntry).result, true
}

func (e *Expander) put(key string, result Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if el, ok := e.cache[key]; ok {
		el.Value.(*cacheEntry).result = result
		e.order.MoveToFront(el)
		return
	}
	el := e.order.PushFront(&cacheEntry{key: key, result: result})
	e.cache[key] = el
	if e.order.Len() > e.capacity {
		oldest := e.order.Back()
		if oldest != nil {
			e.order.Remove(oldest)
			delete(e.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}
