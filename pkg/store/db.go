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
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Config configures a project's storage directory.
type Config struct {
	// DataDir is the directory holding the project's SQLite file.
	// Defaults to ~/.kge/data/<project_id>.
	DataDir string

	// ProjectID namespaces the data directory and every row written.
	ProjectID string

	// EmbeddingDimensions is recorded for informational purposes; the
	// schema itself is dimension-agnostic (vectors are stored as blobs).
	EmbeddingDimensions int
}

// DefaultDataDir returns ~/.kge/data/<projectID>.
func DefaultDataDir(projectID string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".kge", "data", projectID), nil
}

// DB is the project-scoped storage handle. Writes serialize through mu
// (single writer, many readers); reads take the read lock only, since
// modernc.org/sqlite allows concurrent readers against one file.
type DB struct {
	sql       *sql.DB
	mu        sync.RWMutex
	projectID string
	closed    bool
}

// Open opens (creating if necessary) the project's SQLite database and
// ensures its schema exists.
func Open(config Config) (*DB, error) {
	if config.ProjectID == "" {
		return nil, Invalid("project_id", "project_id is required")
	}

	if config.DataDir == "" {
		dir, err := DefaultDataDir(config.ProjectID)
		if err != nil {
			return nil, Storage(config.ProjectID, "resolve default data dir", err)
		}
		config.DataDir = dir
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, Storage(config.ProjectID, "create data dir", err)
	}

	dsn := filepath.Join(config.DataDir, "kge.db")
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, Storage(config.ProjectID, "open sqlite database", err)
	}
	sqlDB.SetMaxOpenConns(1) // modernc.org/sqlite: one connection avoids SQLITE_BUSY under our own RWMutex

	if _, err := sqlDB.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, Storage(config.ProjectID, "enable foreign keys", err)
	}
	if _, err := sqlDB.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		return nil, Storage(config.ProjectID, "enable WAL mode", err)
	}

	db := &DB{sql: sqlDB, projectID: config.ProjectID}
	if err := db.EnsureSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates tables if they don't exist. Idempotent.
func (d *DB) EnsureSchema() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, stmt := range schemaStatements {
		if _, err := d.sql.Exec(stmt); err != nil {
			return Storage(d.projectID, "apply schema statement", err)
		}
	}

	var current int
	row := d.sql.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return Storage(d.projectID, "read schema version", err)
	}
	if current < schemaVersion {
		_, err := d.sql.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			schemaVersion, time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return Storage(d.projectID, "record schema version", err)
		}
	}

	return nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.sql.Close()
}

// ProjectID returns the project this handle is scoped to.
func (d *DB) ProjectID() string { return d.projectID }

// querier is satisfied by both *sql.DB and *sql.Tx, letting read/write
// helpers run either standalone or inside Transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Transaction runs fn inside a single SQL transaction, serialized against
// all other writers for this project. A panic or returned error rolls
// back; fn's error (or the commit error) propagates to the caller, per
// the storage layer's atomic-transaction contract.
func (d *DB) Transaction(ctx context.Context, fn func(ctx context.Context, q querier) error) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Storage(d.projectID, "transaction", fmt.Errorf("database is closed"))
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return Storage(d.projectID, "begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return Storage(d.projectID, "commit transaction", err)
	}
	return nil
}

// read runs fn against the database under the read lock, without starting
// an explicit transaction — for single-statement queries.
func (d *DB) read(ctx context.Context, fn func(ctx context.Context, q querier) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return Storage(d.projectID, "read", fmt.Errorf("database is closed"))
	}
	return fn(ctx, d.sql)
}

// write runs fn against the database under the write lock as a single
// statement (not a multi-statement transaction).
func (d *DB) write(ctx context.Context, fn func(ctx context.Context, q querier) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return Storage(d.projectID, "write", fmt.Errorf("database is closed"))
	}
	return fn(ctx, d.sql)
}
