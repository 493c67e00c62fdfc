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

// Package search runs the keyword, semantic, and graph retrieval
// strategies and fuses their rankings with Reciprocal Rank Fusion.
package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/kraklabs/kge/pkg/graph"
	"github.com/kraklabs/kge/pkg/store"
)

// Strategy names, used as SearchResult.Source and as Weights map keys.
const (
	StrategyKeyword  = "keyword"
	StrategySemantic = "semantic"
	StrategyGraph    = "graph"

	// RRFK is the rank-fusion constant from spec.md §4.8.
	RRFK = 60
)

// SearchResult is one candidate produced by a single strategy, before fusion.
type SearchResult struct {
	EntityID string
	Score    float64
	Source   string
}

// Options configures one Run call.
type Options struct {
	ProjectID       string
	EmbeddingModel  string
	QueryVector     []float32 // required for the semantic strategy
	EntityMentions  []string  // seeds for the graph strategy
	GraphDepth      int       // default 2
	Strategies      map[string]bool
	Weights         map[string]float64
	EntityTypes     []store.EntityType
	MinScore        float64
	Limit           int
}

// FusedResult is one entity after RRF, annotated with the entity itself for
// downstream consumers (context assembly, critique) that need more than an id.
type FusedResult struct {
	Entity     store.Entity
	FusedScore float64
}

var defaultWeights = map[string]float64{
	StrategyKeyword:  1.0,
	StrategySemantic: 1.0,
	StrategyGraph:    0.5,
}

// Run executes every enabled strategy in opts.Strategies (default: all
// three), fuses their rankings with RRF, applies the entity-type filter,
// de-duplicates on entity id (keeping the max fused score), sorts
// descending, applies MinScore, and truncates to Limit.
func Run(ctx context.Context, db *store.DB, query string, opts Options, logger *slog.Logger) ([]FusedResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.GraphDepth <= 0 {
		opts.GraphDepth = 2
	}
	weights := opts.Weights
	if weights == nil {
		weights = defaultWeights
	}
	strategies := opts.Strategies
	if strategies == nil {
		strategies = map[string]bool{StrategyKeyword: true, StrategySemantic: true, StrategyGraph: true}
	}

	rankings := map[string][]SearchResult{}

	if strategies[StrategyKeyword] && query != "" {
		res, err := keywordSearch(ctx, db, opts.ProjectID, query, opts.EntityTypes)
		if err != nil {
			return nil, err
		}
		rankings[StrategyKeyword] = res
	}

	if strategies[StrategySemantic] && len(opts.QueryVector) > 0 {
		res, err := semanticSearch(ctx, db, opts, logger)
		if err != nil {
			logger.Warn("search.semantic.fallback", "error", err)
		} else {
			rankings[StrategySemantic] = res
		}
	}

	if strategies[StrategyGraph] && len(opts.EntityMentions) > 0 {
		res, err := graphSearch(ctx, db, opts, logger)
		if err != nil {
			logger.Warn("search.graph.error", "error", err)
		} else {
			rankings[StrategyGraph] = res
		}
	}

	fused := fuse(rankings, weights)
	return materialize(ctx, db, fused, opts)
}

// keywordSearch delegates to the storage layer's match-locality text search.
func keywordSearch(ctx context.Context, db *store.DB, projectID, query string, types []store.EntityType) ([]SearchResult, error) {
	filter := store.SearchFilter{Limit: 100}
	if len(types) == 1 {
		filter.Type = types[0]
	}
	hits, err := db.Search(ctx, projectID, query, filter)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		out[i] = SearchResult{EntityID: h.Entity.ID, Score: h.Score, Source: StrategyKeyword}
	}
	return out, nil
}

// semanticSearch ranks by cosine similarity over StoredEmbeddings.
func semanticSearch(ctx context.Context, db *store.DB, opts Options, logger *slog.Logger) ([]SearchResult, error) {
	filter := store.SearchFilter{Limit: 100, MinScore: opts.MinScore}
	if len(opts.EntityTypes) == 1 {
		filter.Type = opts.EntityTypes[0]
	}
	model := opts.EmbeddingModel
	if model == "" {
		model = "code"
	}
	hits, err := db.SearchEmbeddings(ctx, opts.ProjectID, model, opts.QueryVector, filter)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		out[i] = SearchResult{EntityID: h.EntityID, Score: h.Similarity, Source: StrategySemantic}
	}
	return out, nil
}

// graphSearch ranks entities reached by BFS from the query's entity
// mentions, tie-broken by edge-weight sum, limited by opts.GraphDepth.
func graphSearch(ctx context.Context, db *store.DB, opts Options, logger *slog.Logger) ([]SearchResult, error) {
	g, err := graph.Build(ctx, db, opts.ProjectID, logger)
	if err != nil {
		return nil, err
	}

	var seeds []string
	for _, mention := range opts.EntityMentions {
		ent, err := db.GetEntity(ctx, opts.ProjectID, store.EntityLookup{Name: mention})
		if err != nil {
			continue
		}
		seeds = append(seeds, ent.ID)
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	hits, err := g.BFS(ctx, db, seeds, graph.BFSOptions{MaxDepth: opts.GraphDepth, Direction: store.DirectionBoth})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Depth != hits[j].Depth {
			return hits[i].Depth < hits[j].Depth
		}
		return hits[i].WeightSum > hits[j].WeightSum
	})

	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		// Score decreasing with depth keeps seeds ranked above their
		// neighbors within the fused ranking's per-strategy rank order.
		out = append(out, SearchResult{EntityID: h.ID, Score: 1.0 / float64(1+h.Depth), Source: StrategyGraph})
	}
	return out, nil
}

// fuse computes Reciprocal Rank Fusion over each strategy's ranked list:
// fused_score(e) = sum_s weight_s * 1/(k + rank_s(e)), rank is 1-based.
func fuse(rankings map[string][]SearchResult, weights map[string]float64) map[string]float64 {
	scores := map[string]float64{}
	for strategy, results := range rankings {
		w := weights[strategy]
		if w == 0 {
			continue
		}
		for rank, r := range results {
			scores[r.EntityID] += w * (1.0 / float64(RRFK+rank+1))
		}
	}
	return scores
}

func materialize(ctx context.Context, db *store.DB, scores map[string]float64, opts Options) ([]FusedResult, error) {
	var out []FusedResult
	for id, score := range scores {
		if score < opts.MinScore {
			continue
		}
		ent, err := db.GetEntity(ctx, opts.ProjectID, store.EntityLookup{ID: id})
		if err != nil {
			continue
		}
		if len(opts.EntityTypes) > 0 && !containsType(opts.EntityTypes, ent.Type) {
			continue
		}
		out = append(out, FusedResult{Entity: *ent, FusedScore: score})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].FusedScore > out[j].FusedScore })

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsType(types []store.EntityType, t store.EntityType) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}
