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

package ingestion

// RepoSource identifies where a repository's contents should be loaded
// from. Type is "git_url" or "local_path"; Value holds the URL or
// filesystem path respectively.
type RepoSource struct {
	Type  string
	Value string
}

// Config is the top-level configuration for one ingestion run.
type Config struct {
	// ProjectID is the unique identifier for the project being indexed.
	ProjectID string

	// RepoSource identifies where to load the repository from.
	RepoSource RepoSource

	// IngestionConfig holds the tunable pipeline parameters.
	IngestionConfig IngestionConfig
}

// IngestionConfig configures the stages of LocalPipeline.
type IngestionConfig struct {
	// ParserMode selects treesitter, simplified, or auto parser selection.
	ParserMode ParserMode

	// EmbeddingProvider selects which EmbeddingProvider CreateEmbeddingProvider builds.
	EmbeddingProvider string

	// MaxFileSizeBytes skips files larger than this during repository load.
	MaxFileSizeBytes int64

	// MaxCodeTextBytes bounds how much source text a function/type entity carries inline.
	MaxCodeTextBytes int64

	// ExcludeGlobs are glob patterns excluded from repository loading.
	ExcludeGlobs []string

	// Concurrency controls worker pool sizes for parsing and embedding.
	Concurrency ConcurrencyConfig

	// LocalDataDir is the directory holding the project's SQLite database.
	LocalDataDir string

	// CheckpointPath is the directory checkpoints are written to.
	CheckpointPath string

	// BatchTargetMutations bounds how many entities are written per storage transaction.
	BatchTargetMutations int
}

// ConcurrencyConfig controls worker pool sizes for the parse and embed stages.
type ConcurrencyConfig struct {
	ParseWorkers int
	EmbedWorkers int
}

// DefaultConfig returns sensible defaults for local, single-machine indexing.
func DefaultConfig() IngestionConfig {
	return IngestionConfig{
		ParserMode:           ParserModeAuto,
		EmbeddingProvider:    "mock",
		MaxFileSizeBytes:     1024 * 1024,
		MaxCodeTextBytes:     100 * 1024,
		ExcludeGlobs:         []string{"node_modules/**", ".git/**", "vendor/**", "dist/**", "build/**"},
		BatchTargetMutations: 2000,
		Concurrency:          ConcurrencyConfig{ParseWorkers: 4, EmbedWorkers: 8},
	}
}
