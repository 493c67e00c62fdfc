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
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpsertRelationship inserts r, or — on a (source_id, target_id,
// relationship) conflict — updates weight and metadata in place. Self-loops
// are rejected as Invalid.
func (d *DB) UpsertRelationship(ctx context.Context, r *Relationship) (*Relationship, error) {
	if r.SourceID == r.TargetID {
		return nil, Invalid(r.SourceID, "relationship cannot be a self-loop")
	}
	if !ValidRelationshipTypes(r.Relationship) {
		return nil, Invalid(r.SourceID, fmt.Sprintf("unknown relationship type %q", r.Relationship))
	}

	metaJSON, err := marshalMeta(r.Metadata)
	if err != nil {
		return nil, Invalid(r.SourceID, "marshal metadata: "+err.Error())
	}

	weight := r.Weight
	if weight == 0 {
		weight = 1.0
	}

	now := time.Now().UTC()
	out := *r
	out.Weight = weight

	err = d.write(ctx, func(ctx context.Context, q querier) error {
		var existingID, createdAt string
		row := q.QueryRowContext(ctx,
			`SELECT id, created_at FROM relationships WHERE source_id = ? AND target_id = ? AND relationship = ?`,
			r.SourceID, r.TargetID, string(r.Relationship))
		switch scanErr := row.Scan(&existingID, &createdAt); scanErr {
		case nil:
			out.ID = existingID
			out.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
			_, execErr := q.ExecContext(ctx,
				`UPDATE relationships SET weight = ?, metadata = ? WHERE id = ?`,
				weight, metaJSON, out.ID)
			return execErr
		case sql.ErrNoRows:
			if out.ID == "" {
				out.ID = uuid.NewString()
			}
			out.CreatedAt = now
			_, execErr := q.ExecContext(ctx, `
				INSERT INTO relationships (
					id, project_id, source_id, target_id, relationship, weight, metadata, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				out.ID, out.ProjectID, out.SourceID, out.TargetID, string(out.Relationship),
				weight, metaJSON, now.Format(time.RFC3339Nano))
			return execErr
		default:
			return scanErr
		}
	})
	if err != nil {
		return nil, Storage(r.SourceID, "upsert relationship", err)
	}
	return &out, nil
}

// GetRelationshipsFor returns relationships touching id, filtered by
// direction: in (id is target), out (id is source), or both.
func (d *DB) GetRelationshipsFor(ctx context.Context, id string, direction Direction) ([]Relationship, error) {
	var query string
	switch direction {
	case DirectionIn:
		query = `SELECT ` + relColumns + ` FROM relationships WHERE target_id = ?`
	case DirectionOut:
		query = `SELECT ` + relColumns + ` FROM relationships WHERE source_id = ?`
	default:
		query = `SELECT ` + relColumns + ` FROM relationships WHERE source_id = ? OR target_id = ?`
	}

	var args []any
	if direction == DirectionBoth {
		args = []any{id, id}
	} else {
		args = []any{id}
	}

	var out []Relationship
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r Relationship
			if err := scanRelationship(rows, &r); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, Storage(id, "get relationships", err)
	}
	return out, nil
}

// Count returns the number of stored relationships of the given type,
// scoped to projectID.
func (d *DB) Count(ctx context.Context, projectID string, relType RelationshipType) (int, error) {
	var n int
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM relationships WHERE project_id = ? AND relationship = ?`,
			projectID, string(relType))
		return row.Scan(&n)
	})
	if err != nil {
		return 0, Storage(string(relType), "count relationships", err)
	}
	return n, nil
}

const relColumns = `id, project_id, source_id, target_id, relationship, weight, metadata, created_at`

func scanRelationship(rows *sql.Rows, r *Relationship) error {
	var (
		relType, metaJSON, createdAt string
	)
	if err := rows.Scan(&r.ID, &r.ProjectID, &r.SourceID, &r.TargetID, &relType, &r.Weight, &metaJSON, &createdAt); err != nil {
		return err
	}
	r.Relationship = RelationshipType(relType)
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	meta, err := unmarshalMeta(metaJSON)
	if err != nil {
		return err
	}
	r.Metadata = meta
	return nil
}
