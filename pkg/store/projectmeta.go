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
	"time"
)

// ProjectMeta tracks per-project incremental-indexing state: the last
// git SHA ingested and a monotonic commit counter used to detect races
// between concurrent indexers.
type ProjectMeta struct {
	ProjectID          string
	LastIndexedSHA     string
	LastCommittedIndex uint64
	UpdatedAt          time.Time
}

// GetProjectMeta returns nil, nil if the project has no recorded state yet.
func (d *DB) GetProjectMeta(ctx context.Context, projectID string) (*ProjectMeta, error) {
	var (
		meta      ProjectMeta
		updatedAt string
		sha       sql.NullString
	)
	meta.ProjectID = projectID

	err := d.read(ctx, func(ctx context.Context, q querier) error {
		row := q.QueryRowContext(ctx,
			`SELECT last_indexed_sha, last_committed_index, updated_at FROM project_meta WHERE project_id = ?`,
			projectID)
		return row.Scan(&sha, &meta.LastCommittedIndex, &updatedAt)
	})
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, Storage(projectID, "get project meta", err)
	}
	meta.LastIndexedSHA = sha.String
	meta.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &meta, nil
}

// SetProjectMeta upserts meta.
func (d *DB) SetProjectMeta(ctx context.Context, meta *ProjectMeta) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return d.write(ctx, func(ctx context.Context, q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO project_meta (project_id, last_indexed_sha, last_committed_index, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(project_id) DO UPDATE SET
				last_indexed_sha = excluded.last_indexed_sha,
				last_committed_index = excluded.last_committed_index,
				updated_at = excluded.updated_at`,
			meta.ProjectID, meta.LastIndexedSHA, meta.LastCommittedIndex, now)
		if err != nil {
			return Storage(meta.ProjectID, "set project meta", err)
		}
		return nil
	})
}

// EntityIDsForFiles returns, for entities of the given type whose
// file_path is one of filePaths, a map of file_path -> entity ids. Used
// to find stale children (functions, types, calls edges) when a file is
// re-ingested or deleted.
func (d *DB) EntityIDsForFiles(ctx context.Context, projectID string, entityType EntityType, filePaths []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(filePaths) == 0 {
		return out, nil
	}

	placeholders, args := inClause(filePaths)
	args = append([]any{projectID, string(entityType)}, args...)

	err := d.read(ctx, func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx,
			`SELECT id, file_path FROM entities WHERE project_id = ? AND type = ? AND file_path IN (`+placeholders+`)`,
			args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id, path string
			if err := rows.Scan(&id, &path); err != nil {
				return err
			}
			out[path] = append(out[path], id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, Storage(entityType.string(), "entity ids for files", err)
	}
	return out, nil
}

func (t EntityType) string() string { return string(t) }

func inClause(values []string) (string, []any) {
	placeholders := make([]byte, 0, len(values)*2)
	args := make([]any, len(values))
	for i, v := range values {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = v
	}
	return string(placeholders), args
}
