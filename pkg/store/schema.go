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

// schemaStatements creates the project's tables if they don't exist. Each
// statement is run independently so re-running EnsureSchema is always
// safe, mirroring the "create, ignore already-exists" pattern used for
// the original Datalog schema this storage layer replaces.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS entities (
		id             TEXT PRIMARY KEY,
		project_id     TEXT NOT NULL,
		type           TEXT NOT NULL,
		name           TEXT NOT NULL,
		qualified_name TEXT NOT NULL,
		content        TEXT,
		summary        TEXT,
		file_path      TEXT,
		start_line     INTEGER,
		end_line       INTEGER,
		metadata       TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_qualified_name
		ON entities(project_id, qualified_name)`,
	`CREATE INDEX IF NOT EXISTS idx_entities_project_type ON entities(project_id, type)`,
	`CREATE INDEX IF NOT EXISTS idx_entities_file_path ON entities(project_id, file_path)`,

	`CREATE TABLE IF NOT EXISTS relationships (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL,
		source_id    TEXT NOT NULL,
		target_id    TEXT NOT NULL,
		relationship TEXT NOT NULL,
		weight       REAL NOT NULL DEFAULT 1.0,
		metadata     TEXT,
		created_at   TEXT NOT NULL,
		FOREIGN KEY (source_id) REFERENCES entities(id) ON DELETE CASCADE,
		FOREIGN KEY (target_id) REFERENCES entities(id) ON DELETE CASCADE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_relationships_unique
		ON relationships(source_id, target_id, relationship)`,
	`CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id)`,

	`CREATE TABLE IF NOT EXISTS embeddings (
		entity_id  TEXT NOT NULL,
		model      TEXT NOT NULL,
		vector     BLOB NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (entity_id, model),
		FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		state      TEXT NOT NULL,
		summary    TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq)`,

	`CREATE TABLE IF NOT EXISTS decisions (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS query_logs (
		id                   TEXT PRIMARY KEY,
		project_id           TEXT NOT NULL,
		raw_query            TEXT NOT NULL,
		intent               TEXT,
		tokens_retrieved     INTEGER NOT NULL DEFAULT 0,
		tokens_estimate_full INTEGER NOT NULL DEFAULT 0,
		tokens_saved         INTEGER NOT NULL DEFAULT 0,
		cost_actual          REAL NOT NULL DEFAULT 0,
		cost_estimate_full   REAL NOT NULL DEFAULT 0,
		cost_saved           REAL NOT NULL DEFAULT 0,
		relevance_score      REAL NOT NULL DEFAULT 0,
		item_count           INTEGER NOT NULL DEFAULT 0,
		item_types           TEXT,
		strategies           TEXT,
		was_useful           INTEGER,
		created_at           TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_query_logs_project ON query_logs(project_id)`,

	`CREATE TABLE IF NOT EXISTS project_meta (
		project_id            TEXT PRIMARY KEY,
		last_indexed_sha      TEXT,
		last_committed_index  INTEGER NOT NULL DEFAULT 0,
		updated_at            TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS full_context_estimates (
		project_id   TEXT PRIMARY KEY,
		entity_count INTEGER NOT NULL,
		token_count  INTEGER NOT NULL,
		updated_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		applied_at  TEXT NOT NULL
	)`,
}

// schemaVersion tracks the highest migration applied by EnsureSchema.
const schemaVersion = 1
