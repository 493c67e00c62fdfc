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

package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"sort"
	"time"
)

// UpsertEmbedding stores one unit-normalized vector for entityID under
// model, replacing any prior vector for the same (entity_id, model) pair.
func (d *DB) UpsertEmbedding(ctx context.Context, entityID, model string, vector []float32) error {
	normalized := normalize(vector)
	blob := encodeVector(normalized)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	return d.write(ctx, func(ctx context.Context, q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO embeddings (entity_id, model, vector, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(entity_id, model) DO UPDATE SET vector = excluded.vector, created_at = excluded.created_at`,
			entityID, model, blob, now)
		if err != nil {
			return Storage(entityID, "upsert embedding", err)
		}
		return nil
	})
}

// EmbeddingSearchResult pairs an entity id with its cosine similarity to
// the query vector.
type EmbeddingSearchResult struct {
	EntityID   string
	Similarity float64
}

// SearchEmbeddings returns the entities whose stored vector under model is
// most cosine-similar to query, filtered by filter.Type and
// filter.MinScore, capped at filter.Limit (default 20). There is no
// vector index: this is a pure-Go linear scan, adequate for the
// project-local corpus sizes this engine targets.
func (d *DB) SearchEmbeddings(ctx context.Context, projectID, model string, query []float32, filter SearchFilter) ([]EmbeddingSearchResult, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	q2 := normalize(query)

	sqlQuery := `
		SELECT e.entity_id, e.vector FROM embeddings e
		JOIN entities en ON en.id = e.entity_id
		WHERE e.model = ? AND en.project_id = ?`
	args := []any{model, projectID}
	if filter.Type != "" {
		sqlQuery += " AND en.type = ?"
		args = append(args, string(filter.Type))
	}

	var results []EmbeddingSearchResult
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var entityID string
			var blob []byte
			if err := rows.Scan(&entityID, &blob); err != nil {
				return err
			}
			vec := decodeVector(blob)
			sim := cosineSimilarity(q2, vec)
			if sim < filter.MinScore {
				continue
			}
			results = append(results, EmbeddingSearchResult{EntityID: entityID, Similarity: sim})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, Storage(model, "search embeddings", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetEmbedding returns the stored vector for (entityID, model), or a
// NotFound error if none exists.
func (d *DB) GetEmbedding(ctx context.Context, entityID, model string) (*StoredEmbedding, error) {
	var (
		blob      []byte
		createdAt string
	)
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT vector, created_at FROM embeddings WHERE entity_id = ? AND model = ?`, entityID, model)
		return row.Scan(&blob, &createdAt)
	})
	if err == sql.ErrNoRows {
		return nil, NotFound(entityID, "embedding not found")
	}
	if err != nil {
		return nil, Storage(entityID, "get embedding", err)
	}
	ts, _ := time.Parse(time.RFC3339Nano, createdAt)
	return &StoredEmbedding{EntityID: entityID, Model: model, Vector: decodeVector(blob), CreatedAt: ts}, nil
}

// CountEmbeddings returns the number of stored embedding rows for model,
// scoped to projectID through a join against entities (the embeddings
// table itself carries no project_id).
func (d *DB) CountEmbeddings(ctx context.Context, projectID, model string) (int, error) {
	var n int
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM embeddings e
			JOIN entities ent ON ent.id = e.entity_id
			WHERE ent.project_id = ? AND e.model = ?`, projectID, model)
		return row.Scan(&n)
	})
	if err != nil {
		return 0, Storage(model, "count embeddings", err)
	}
	return n, nil
}

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func encodeVector(v []float32) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(len(v) * 4)
	for _, x := range v {
		_ = binary.Write(buf, binary.LittleEndian, x)
	}
	return buf.Bytes()
}

func decodeVector(blob []byte) []float32 {
	n := len(blob) / 4
	out := make([]float32, n)
	r := bytes.NewReader(blob)
	for i := 0; i < n; i++ {
		_ = binary.Read(r, binary.LittleEndian, &out[i])
	}
	return out
}
