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
	"log/slog"

	"github.com/kraklabs/kge/pkg/ingestion"
	"github.com/kraklabs/kge/pkg/kgeapi"
	"github.com/kraklabs/kge/pkg/llm"
)

// newEngine builds the kgeapi.Engine every subcommand (and the MCP
// server) drives the system through, from the project's loaded
// configuration.
func newEngine(cfg *Config, logger *slog.Logger) (*kgeapi.Engine, error) {
	llmCfg := llm.ProviderConfig{Type: "mock"}
	if cfg.LLM.Enabled {
		llmCfg = llm.ProviderConfig{
			Type:         cfg.LLM.Provider,
			BaseURL:      cfg.LLM.BaseURL,
			APIKey:       cfg.LLM.APIKey,
			DefaultModel: cfg.LLM.Model,
		}
	}

	return kgeapi.New(kgeapi.Config{
		ProjectID:         cfg.ProjectID,
		EmbeddingProvider: cfg.Embedding.Provider,
		LLMProvider:       llmCfg,
		ParserMode:        ingestion.ParserMode(cfg.Indexing.ParserMode),
		ExcludeGlobs:      cfg.Indexing.Exclude,
		MaxFileSizeBytes:  cfg.Indexing.MaxFileSize,
		Concurrency: ingestion.ConcurrencyConfig{
			ParseWorkers: cfg.Indexing.ParseWorkers,
			EmbedWorkers: cfg.Indexing.EmbedWorkers,
		},
		EnableHyDE: cfg.Retrieval.EnableHyDE,
		LogQueries: cfg.Retrieval.LogQueries,
		Logger:     logger,
	})
}
