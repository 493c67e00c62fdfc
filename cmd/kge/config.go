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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the project-level configuration read from .kge/project.yaml.
type Config struct {
	ProjectID string          `yaml:"project_id"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama, nomic, openai, mock
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// LLMConfig configures the provider used for HyDE, critique, and
// conversation summarization.
type LLMConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider,omitempty"` // ollama, openai, anthropic, mock
	BaseURL   string `yaml:"base_url,omitempty"`
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// IndexingConfig tunes the ingestion pipeline.
type IndexingConfig struct {
	ParserMode   string   `yaml:"parser_mode,omitempty"` // treesitter, simplified, auto
	Exclude      []string `yaml:"exclude,omitempty"`
	MaxFileSize  int64    `yaml:"max_file_size,omitempty"`
	BatchTarget  int      `yaml:"batch_target,omitempty"`
	ParseWorkers int      `yaml:"parse_workers,omitempty"`
	EmbedWorkers int      `yaml:"embed_workers,omitempty"`
}

// RetrievalConfig tunes search, context assembly, and logging.
type RetrievalConfig struct {
	EnableHyDE bool `yaml:"enable_hyde"`
	LogQueries bool `yaml:"log_queries"`
}

// DefaultConfig returns a project configuration with sensible local
// defaults: mock embeddings, no LLM, query logging on.
func DefaultConfig(projectID string) *Config {
	return &Config{
		ProjectID: projectID,
		Embedding: EmbeddingConfig{
			Provider: "mock",
		},
		LLM: LLMConfig{
			Enabled: false,
		},
		Indexing: IndexingConfig{
			ParserMode:   "auto",
			MaxFileSize:  1024 * 1024,
			BatchTarget:  2000,
			ParseWorkers: 4,
			EmbedWorkers: 8,
		},
		Retrieval: RetrievalConfig{
			EnableHyDE: false,
			LogQueries: true,
		},
	}
}

// ConfigDir returns the .kge directory under dir.
func ConfigDir(dir string) string {
	return filepath.Join(dir, ".kge")
}

// ConfigPath returns the project.yaml path under dir.
func ConfigPath(dir string) string {
	return filepath.Join(ConfigDir(dir), "project.yaml")
}

// LoadConfig reads and parses project.yaml. An empty path resolves to
// ./.kge/project.yaml relative to the current directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-supplied, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no configuration at %s (run 'kge init' first)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("config at %s is missing project_id", path)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating its parent directory.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: project config is not sensitive
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
