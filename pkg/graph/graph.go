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

// Package graph holds a rebuildable in-memory adjacency cache over a
// project's relationships, used for neighbor lookups, breadth-first
// search, and shortest-path queries without round-tripping to storage on
// every traversal step. The persistent store remains ground truth; this
// cache can always be thrown away and rebuilt from it.
package graph

import (
	"container/list"
	"context"
	"log/slog"

	"github.com/kraklabs/kge/pkg/store"
)

type edge struct {
	to     string
	rel    store.RelationshipType
	weight float64
}

// Graph is an in-memory adjacency list keyed by entity id, built from one
// project's relationship rows.
type Graph struct {
	projectID string
	out       map[string][]edge
	in        map[string][]edge
	logger    *slog.Logger
}

// Build returns an empty Graph for projectID; no relationships are loaded
// here, and edges enter the graph only through AddFromStore. Direction is
// tracked both ways so Neighbors can serve "in", "out", or "both" without
// a second pass.
func Build(ctx context.Context, db *store.DB, projectID string, logger *slog.Logger) (*Graph, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Graph{projectID: projectID, out: map[string][]edge{}, in: map[string][]edge{}, logger: logger}

	// There is no project-wide "list all relationships" call on *store.DB;
	// callers build the graph from the entity ids they already hold by
	// asking the store for each entity's relationships. AddFromStore lets
	// a caller populate incrementally as it discovers entities (e.g. while
	// walking search results), which is how Neighbors/BFS are expected to
	// be used in practice — a full-graph rebuild asks the store once per
	// seed set rather than paging every relationship row up front.
	logger.Debug("graph.build.empty", "project_id", projectID)
	return g, nil
}

// AddFromStore fetches id's relationships (both directions) from db and
// merges them into the graph, so traversal can expand the frontier lazily
// instead of requiring the whole project's edge set in memory.
func (g *Graph) AddFromStore(ctx context.Context, db *store.DB, id string) error {
	rels, err := db.GetRelationshipsFor(ctx, id, store.DirectionBoth)
	if err != nil {
		return err
	}
	for _, r := range rels {
		if r.SourceID == id {
			g.out[id] = append(g.out[id], edge{to: r.TargetID, rel: r.Relationship, weight: r.Weight})
			g.in[r.TargetID] = append(g.in[r.TargetID], edge{to: id, rel: r.Relationship, weight: r.Weight})
		} else {
			g.in[id] = append(g.in[id], edge{to: r.SourceID, rel: r.Relationship, weight: r.Weight})
			g.out[r.SourceID] = append(g.out[r.SourceID], edge{to: id, rel: r.Relationship, weight: r.Weight})
		}
	}
	return nil
}

// Neighbor pairs an adjacent entity id with the relationship connecting it.
type Neighbor struct {
	ID           string
	Relationship store.RelationshipType
	Weight       float64
}

// Neighbors returns id's directly adjacent entities, filtered by direction
// and, when non-empty, to relationship types in relFilter.
func (g *Graph) Neighbors(id string, direction store.Direction, relFilter []store.RelationshipType) []Neighbor {
	allow := func(rel store.RelationshipType) bool {
		if len(relFilter) == 0 {
			return true
		}
		for _, f := range relFilter {
			if f == rel {
				return true
			}
		}
		return false
	}

	var out []Neighbor
	seen := map[string]bool{}
	add := func(edges []edge) {
		for _, e := range edges {
			if !allow(e.rel) {
				continue
			}
			key := e.to + "|" + string(e.rel)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Neighbor{ID: e.to, Relationship: e.rel, Weight: e.weight})
		}
	}

	if direction == store.DirectionOut || direction == store.DirectionBoth {
		add(g.out[id])
	}
	if direction == store.DirectionIn || direction == store.DirectionBoth {
		add(g.in[id])
	}
	return out
}

// BFSOptions bounds a breadth-first traversal.
type BFSOptions struct {
	MaxDepth     int
	EdgeFilter   []store.RelationshipType
	Direction    store.Direction
}

// BFSResult pairs a reached entity id with its distance (in hops) from the
// nearest seed and the cumulative edge weight along the path that reached it.
type BFSResult struct {
	ID         string
	Depth      int
	WeightSum  float64
}

// BFS walks outward from seeds, loading each expanded entity's edges via
// AddFromStore and visiting each entity at most once, bounded by
// opts.MaxDepth. Cycles are safe: the visited set prevents re-expansion.
func (g *Graph) BFS(ctx context.Context, db *store.DB, seeds []string, opts BFSOptions) ([]BFSResult, error) {
	if opts.Direction == "" {
		opts.Direction = store.DirectionOut
	}
	visited := map[string]bool{}
	var results []BFSResult
	queue := list.New()

	for _, s := range seeds {
		if visited[s] {
			continue
		}
		visited[s] = true
		queue.PushBack(BFSResult{ID: s, Depth: 0, WeightSum: 0})
	}

	for queue.Len() > 0 {
		front := queue.Remove(queue.Front()).(BFSResult)
		results = append(results, front)
		if front.Depth >= opts.MaxDepth {
			continue
		}
		if err := g.AddFromStore(ctx, db, front.ID); err != nil {
			return nil, err
		}
		for _, n := range g.Neighbors(front.ID, opts.Direction, opts.EdgeFilter) {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			queue.PushBack(BFSResult{ID: n.ID, Depth: front.Depth + 1, WeightSum: front.WeightSum + n.Weight})
		}
	}
	return results, nil
}

// ShortestPath returns the sequence of entity ids from "from" to "to"
// (inclusive of both endpoints), or nil if unreachable within maxDepth
// hops. Ties are broken by BFS discovery order (first path found).
func (g *Graph) ShortestPath(ctx context.Context, db *store.DB, from, to string, maxDepth int) ([]string, error) {
	if from == to {
		return []string{from}, nil
	}
	type frame struct {
		id   string
		path []string
	}
	visited := map[string]bool{from: true}
	queue := list.New()
	queue.PushBack(frame{id: from, path: []string{from}})

	for depth := 0; queue.Len() > 0 && depth < maxDepth; depth++ {
		levelSize := queue.Len()
		for i := 0; i < levelSize; i++ {
			front := queue.Remove(queue.Front()).(frame)
			if err := g.AddFromStore(ctx, db, front.id); err != nil {
				return nil, err
			}
			for _, n := range g.Neighbors(front.id, store.DirectionBoth, nil) {
				if visited[n.ID] {
					continue
				}
				path := append(append([]string{}, front.path...), n.ID)
				if n.ID == to {
					return path, nil
				}
				visited[n.ID] = true
				queue.PushBack(frame{id: n.ID, path: path})
			}
		}
	}
	return nil, nil
}
