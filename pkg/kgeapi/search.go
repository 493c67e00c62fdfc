// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package kgeapi

import (
	"context"

	kgectx "github.com/kraklabs/kge/pkg/context"
	"github.com/kraklabs/kge/pkg/queryparse"
	"github.com/kraklabs/kge/pkg/search"
	"github.com/kraklabs/kge/pkg/store"
)

// queryVector resolves the embedding vector backing the semantic search
// strategy: HyDE's hypothetical-answer embedding when enabled and gated
// in, otherwise a direct embedding of the literal query.
func (e *Engine) queryVector(ctx context.Context, query string, parsed queryparse.ParsedQuery, useHyDE bool) ([]float32, error) {
	if useHyDE && e.hydeExp != nil {
		result, err := e.hydeExp.Expand(ctx, e.projectID, query, parsed)
		if err != nil {
			return nil, err
		}
		return result.Vector, nil
	}
	return e.embedder.Embed(ctx, query)
}

func toEntityTypes(names []string) []store.EntityType {
	if len(names) == 0 {
		return nil
	}
	out := make([]store.EntityType, len(names))
	for i, n := range names {
		out[i] = store.EntityType(n)
	}
	return out
}

func (e *Engine) runSearch(ctx context.Context, query string, opts SearchOptions) ([]search.FusedResult, queryparse.ParsedQuery, error) {
	parsed := queryparse.Parse(query)

	vector, err := e.queryVector(ctx, query, parsed, opts.UseHyDE)
	if err != nil {
		e.logger.Warn("kgeapi.search.embed_query_failed", "error", err)
	}

	fused, err := search.Run(ctx, e.db, query, search.Options{
		ProjectID:      e.projectID,
		EmbeddingModel: e.embeddingModel,
		QueryVector:    vector,
		EntityMentions: parsed.EntityMentions,
		GraphDepth:     opts.GraphDepth,
		Strategies:     opts.Strategies,
		Weights:        opts.Weights,
		EntityTypes:    toEntityTypes(opts.EntityTypes),
		MinScore:       opts.MinScore,
		Limit:          opts.Limit,
	}, e.logger)
	return fused, parsed, err
}

// Search runs the multi-strategy RRF-fused search and returns the ranked
// entities, logging the query (subject to Config.LogQueries) for later
// feedback via RecordFeedback.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) (SearchResult, error) {
	fused, parsed, err := e.runSearch(ctx, query, opts)
	if err != nil {
		return SearchResult{}, err
	}

	items := make([]SearchResultItem, len(fused))
	for i, f := range fused {
		items[i] = SearchResultItem{
			EntityID:   f.Entity.ID,
			Name:       f.Entity.Name,
			Type:       string(f.Entity.Type),
			File:       f.Entity.FilePath,
			Line:       f.Entity.StartLine,
			FusedScore: f.FusedScore,
		}
	}

	logID := e.logQuery(ctx, query, string(parsed.Intent), len(items), strategyNames(opts.Strategies))
	return SearchResult{Results: items, LogID: logID}, nil
}

// GetContext runs Search and assembles the results into a single,
// token-budgeted context block.
func (e *Engine) GetContext(ctx context.Context, query string, opts ContextOptions) (ContextResult, error) {
	fused, parsed, err := e.runSearch(ctx, query, opts.Search)
	if err != nil {
		return ContextResult{}, err
	}

	assembled := kgectx.Assemble(fused, opts.Context)

	logID := e.logQuery(ctx, query, string(parsed.Intent), len(fused), strategyNames(opts.Search.Strategies))
	return ContextResult{
		Context:    assembled.Context,
		Sources:    assembled.Sources,
		TokenCount: assembled.TokenCount,
		Truncated:  assembled.Truncated,
		LogID:      logID,
	}, nil
}

func strategyNames(enabled map[string]bool) []string {
	if len(enabled) == 0 {
		return []string{search.StrategyKeyword, search.StrategySemantic, search.StrategyGraph}
	}
	var out []string
	for name, on := range enabled {
		if on {
			out = append(out, name)
		}
	}
	return out
}

// logQuery records a query_logs row when Config.LogQueries is set,
// returning the assigned id (empty when logging is disabled or the write
// fails, since a logging failure must never fail the search itself).
func (e *Engine) logQuery(ctx context.Context, rawQuery, intent string, itemCount int, strategies []string) string {
	if !e.logQueries {
		return ""
	}
	id, err := e.db.LogQuery(ctx, store.QueryLog{
		ProjectID:  e.projectID,
		RawQuery:   rawQuery,
		Intent:     intent,
		ItemCount:  itemCount,
		Strategies: strategies,
	})
	if err != nil {
		e.logger.Warn("kgeapi.log_query.failed", "error", err)
		return ""
	}
	return id
}
