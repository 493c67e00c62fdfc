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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UpsertEntity inserts e, or updates it in place when a row with the same
// (project_id, qualified_name) already exists. On conflict, all mutable
// fields are overwritten and updated_at is stamped; id, created_at, and
// qualified_name are preserved from the existing row.
func (d *DB) UpsertEntity(ctx context.Context, e *Entity) (*Entity, error) {
	if e.ProjectID == "" {
		return nil, Invalid(e.QualifiedName, "project_id is required")
	}
	if e.QualifiedName == "" {
		return nil, Invalid(e.ID, "qualified_name is required")
	}
	if !ValidEntityTypes(e.Type) {
		return nil, Invalid(e.QualifiedName, fmt.Sprintf("unknown entity type %q", e.Type))
	}

	metaJSON, err := marshalMeta(e.Metadata)
	if err != nil {
		return nil, Invalid(e.QualifiedName, "marshal metadata: "+err.Error())
	}

	now := time.Now().UTC()
	out := *e
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	err = d.write(ctx, func(ctx context.Context, q querier) error {
		var existingID, createdAt string
		row := q.QueryRowContext(ctx,
			`SELECT id, created_at FROM entities WHERE project_id = ? AND qualified_name = ?`,
			e.ProjectID, e.QualifiedName)
		switch scanErr := row.Scan(&existingID, &createdAt); scanErr {
		case nil:
			out.ID = existingID
			out.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
			out.UpdatedAt = now
			_, execErr := q.ExecContext(ctx, `
				UPDATE entities SET
					type = ?, name = ?, content = ?, summary = ?, file_path = ?,
					start_line = ?, end_line = ?, metadata = ?, updated_at = ?
				WHERE id = ?`,
				string(out.Type), out.Name, out.Content, out.Summary, out.FilePath,
				out.StartLine, out.EndLine, metaJSON, now.Format(time.RFC3339Nano), out.ID)
			return execErr
		case sql.ErrNoRows:
			out.CreatedAt = now
			out.UpdatedAt = now
			_, execErr := q.ExecContext(ctx, `
				INSERT INTO entities (
					id, project_id, type, name, qualified_name, content, summary,
					file_path, start_line, end_line, metadata, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				out.ID, out.ProjectID, string(out.Type), out.Name, out.QualifiedName,
				out.Content, out.Summary, out.FilePath, out.StartLine, out.EndLine,
				metaJSON, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
			return execErr
		default:
			return scanErr
		}
	})
	if err != nil {
		return nil, Storage(e.QualifiedName, "upsert entity", err)
	}

	return &out, nil
}

// EntityLookup selects how GetEntity resolves its subject.
type EntityLookup struct {
	ID            string
	QualifiedName string
	Name          string
	Type          EntityType
}

// GetEntity resolves an entity by id, qualified_name, name, or a type
// filter, in that priority order. Returns a NotFound *Error if nothing
// matches.
func (d *DB) GetEntity(ctx context.Context, projectID string, lookup EntityLookup) (*Entity, error) {
	var (
		where string
		args  []any
	)
	switch {
	case lookup.ID != "":
		where, args = "id = ?", []any{lookup.ID}
	case lookup.QualifiedName != "":
		where, args = "qualified_name = ?", []any{lookup.QualifiedName}
	case lookup.Name != "":
		where, args = "name = ?", []any{lookup.Name}
	default:
		return nil, Invalid("", "get_entity requires id, qualified_name, or name")
	}

	query := fmt.Sprintf(`SELECT %s FROM entities WHERE project_id = ? AND %s`, entityColumns, where)
	args = append([]any{projectID}, args...)
	if lookup.Type != "" {
		query += " AND type = ?"
		args = append(args, string(lookup.Type))
	}
	query += " LIMIT 1"

	var ent Entity
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx, query, args...)
		return scanEntity(row, &ent)
	})
	if err == sql.ErrNoRows {
		subject := lookup.ID
		if subject == "" {
			subject = lookup.QualifiedName
		}
		if subject == "" {
			subject = lookup.Name
		}
		return nil, NotFound(subject, "entity not found")
	}
	if err != nil {
		return nil, Storage(lookup.ID, "get entity", err)
	}
	return &ent, nil
}

// DeleteEntity removes an entity and, via ON DELETE CASCADE, every
// relationship and stored embedding referencing it.
func (d *DB) DeleteEntity(ctx context.Context, projectID, id string) error {
	return d.write(ctx, func(ctx context.Context, q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM entities WHERE project_id = ? AND id = ?`, projectID, id)
		if err != nil {
			return Storage(id, "delete entity", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return NotFound(id, "entity not found")
		}
		return nil
	})
}

// ListByType returns every entity of the given type in a project, newest
// first, capped at limit (default 100 when limit <= 0). Used for filtered
// listings (requirements, documents) that don't need a text match.
func (d *DB) ListByType(ctx context.Context, projectID string, t EntityType, limit int) ([]Entity, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM entities WHERE project_id = ? AND type = ? ORDER BY updated_at DESC LIMIT ?`, entityColumns)

	var out []Entity
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, query, projectID, string(t), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var ent Entity
			if err := scanEntity(rows, &ent); err != nil {
				return err
			}
			out = append(out, ent)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, Storage(string(t), "list entities by type", err)
	}
	return out, nil
}

// CountByType returns the number of stored entities of the given type,
// scoped to projectID. Used by status reporting, which needs totals
// rather than the capped rows ListByType returns.
func (d *DB) CountByType(ctx context.Context, projectID string, t EntityType) (int, error) {
	var n int
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM entities WHERE project_id = ? AND type = ?`,
			projectID, string(t))
		return row.Scan(&n)
	})
	if err != nil {
		return 0, Storage(string(t), "count entities by type", err)
	}
	return n, nil
}

// Search does substring/token matching over name, qualified_name, summary,
// and content, ranked by match locality: name matches outrank
// qualified_name matches, which outrank summary matches, which outrank
// content matches.
func (d *DB) Search(ctx context.Context, projectID, text string, filter SearchFilter) ([]SearchResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	like := "%" + text + "%"

	query := fmt.Sprintf(`
		SELECT %s,
			CASE
				WHEN name LIKE ? THEN 4
				WHEN qualified_name LIKE ? THEN 3
				WHEN summary LIKE ? THEN 2
				WHEN content LIKE ? THEN 1
				ELSE 0
			END AS locality
		FROM entities
		WHERE project_id = ?
		AND (name LIKE ? OR qualified_name LIKE ? OR summary LIKE ? OR content LIKE ?)`,
		entityColumns)
	args := []any{like, like, like, like, projectID, like, like, like, like}

	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	query += " ORDER BY locality DESC, updated_at DESC LIMIT ?"
	args = append(args, limit)

	var results []SearchResult
	err := d.read(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ent Entity
			var locality int
			if err := scanEntityRows(rows, &ent, &locality); err != nil {
				return err
			}
			field := []string{"", "content", "summary", "qualified_name", "name"}[locality]
			results = append(results, SearchResult{Entity: ent, Score: float64(locality), Field: field})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, Storage(text, "search entities", err)
	}
	return results, nil
}

const entityColumns = `id, project_id, type, name, qualified_name, content, summary, file_path, start_line, end_line, metadata, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner, e *Entity) error {
	var (
		typ, metaJSON, createdAt, updatedAt string
		content, summary, filePath          sql.NullString
		startLine, endLine                  sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.ProjectID, &typ, &e.Name, &e.QualifiedName,
		&content, &summary, &filePath, &startLine, &endLine, &metaJSON, &createdAt, &updatedAt); err != nil {
		return err
	}
	e.Type = EntityType(typ)
	e.Content = content.String
	e.Summary = summary.String
	e.FilePath = filePath.String
	e.StartLine = int(startLine.Int64)
	e.EndLine = int(endLine.Int64)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	meta, err := unmarshalMeta(metaJSON)
	if err != nil {
		return err
	}
	e.Metadata = meta
	return nil
}

// scanEntityRows is scanEntity plus one trailing extra column (locality).
func scanEntityRows(rows *sql.Rows, e *Entity, extra *int) error {
	var (
		typ, metaJSON, createdAt, updatedAt string
		content, summary, filePath          sql.NullString
		startLine, endLine                  sql.NullInt64
	)
	if err := rows.Scan(&e.ID, &e.ProjectID, &typ, &e.Name, &e.QualifiedName,
		&content, &summary, &filePath, &startLine, &endLine, &metaJSON, &createdAt, &updatedAt, extra); err != nil {
		return err
	}
	e.Type = EntityType(typ)
	e.Content = content.String
	e.Summary = summary.String
	e.FilePath = filePath.String
	e.StartLine = int(startLine.Int64)
	e.EndLine = int(endLine.Int64)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	meta, err := unmarshalMeta(metaJSON)
	if err != nil {
		return err
	}
	e.Metadata = meta
	return nil
}

func marshalMeta(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalMeta(s string) (map[string]any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
