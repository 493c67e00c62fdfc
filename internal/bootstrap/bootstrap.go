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

package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/kge/pkg/store"
)

// ProjectConfig holds configuration for initializing a project.
type ProjectConfig struct {
	// ProjectID is the logical project identifier.
	ProjectID string

	// DataDir is the directory where the project's SQLite database lives.
	// Defaults to ~/.kge/data/<project_id>.
	DataDir string

	// EmbeddingDimensions is the vector size for embeddings. Defaults to
	// 768 (nomic-embed-text). Use 1536 for OpenAI-style models.
	EmbeddingDimensions int
}

// ProjectInfo holds information about an initialized project.
type ProjectInfo struct {
	ProjectID string
	DataDir   string
}

// InitProject initializes a new project with a local SQLite store. This
// function is idempotent: calling it multiple times is safe.
//
// After successful initialization:
//   - the SQLite database exists at DataDir
//   - all required schema tables are created
func InitProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	if config.EmbeddingDimensions == 0 {
		config.EmbeddingDimensions = 768
	}

	if config.DataDir == "" {
		dir, err := store.DefaultDataDir(config.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = dir
	}

	logger.Info("bootstrap.project.init.start",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	db, err := store.Open(store.Config{
		DataDir:             config.DataDir,
		ProjectID:           config.ProjectID,
		EmbeddingDimensions: config.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	logger.Info("bootstrap.project.init.success",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	return &ProjectInfo{
		ProjectID: config.ProjectID,
		DataDir:   config.DataDir,
	}, nil
}

// OpenProject opens an existing project's store for querying.
func OpenProject(config ProjectConfig, logger *slog.Logger) (*store.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	if config.DataDir == "" {
		dir, err := store.DefaultDataDir(config.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = dir
	}

	if _, err := os.Stat(config.DataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'kge init' first)", config.DataDir)
	}

	logger.Debug("bootstrap.project.open",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	db, err := store.Open(store.Config{DataDir: config.DataDir, ProjectID: config.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

// ListProjects returns the project IDs found in the default data directory.
func ListProjects() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	dataDir := filepath.Join(home, ".kge", "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	return projects, nil
}
