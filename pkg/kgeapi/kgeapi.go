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

// Package kgeapi is the engine's single external façade: one Engine type
// wraps storage, ingestion, retrieval, and memory into the nine
// operations callers (cmd/kge, internal/mcpserver) drive the system
// through. It owns the one *store.DB a project opens and hands every
// subsystem a reference to it rather than letting each open its own
// connection, so the single-writer-many-readers guarantee holds across
// the whole process.
package kgeapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kraklabs/kge/pkg/critique"
	"github.com/kraklabs/kge/pkg/docingest"
	"github.com/kraklabs/kge/pkg/hyde"
	"github.com/kraklabs/kge/pkg/ingestion"
	"github.com/kraklabs/kge/pkg/llm"
	"github.com/kraklabs/kge/pkg/memory"
	"github.com/kraklabs/kge/pkg/store"
)

// Config configures one Engine for one project.
type Config struct {
	ProjectID string

	// DataDir holds the project's SQLite database; defaults to
	// ~/.kge/data/<project_id> (see store.DefaultDataDir).
	DataDir string

	// EmbeddingProvider selects the code/query embedding backend: "mock",
	// "nomic", "ollama", or "openai". Defaults to "mock".
	EmbeddingProvider string

	// LLMProvider configures the provider used for HyDE drafts, critique,
	// and conversation summarization. A zero value yields "mock".
	LLMProvider llm.ProviderConfig

	// ParserMode selects the code parser: treesitter, simplified, or auto.
	ParserMode ingestion.ParserMode

	// ExcludeGlobs are glob patterns skipped during directory indexing.
	ExcludeGlobs []string

	// MaxFileSizeBytes and MaxCodeTextBytes bound per-file ingestion cost.
	MaxFileSizeBytes int64
	MaxCodeTextBytes int64

	// Concurrency controls parse/embed worker pool sizes.
	Concurrency ingestion.ConcurrencyConfig

	// EnableHyDE turns on hypothetical-document query expansion for
	// Search and GetContext's semantic strategy.
	EnableHyDE bool

	// LogQueries controls whether Search/GetContext/QueryDocuments record
	// a query_logs row (and, for Search/GetContext, whether the raw query
	// text itself is persisted in it — spec.md §6's "omitted when
	// logQueries=false").
	LogQueries bool

	Logger *slog.Logger
}

// Engine is the process-wide façade over one project's knowledge graph.
type Engine struct {
	projectID string
	logger    *slog.Logger

	pipeline   *ingestion.LocalPipeline
	db         *store.DB
	dispatcher *docingest.Dispatcher
	embedder   ingestion.EmbeddingProvider
	llmProv    llm.Provider
	hydeExp    *hyde.Expander
	memoryMgr  *memory.Manager

	embeddingModel string
	logQueries     bool
}

const embeddingModelTag = "code"

// New opens (or creates) the project's store and wires every subsystem
// against it.
func New(cfg Config) (*Engine, error) {
	if cfg.ProjectID == "" {
		return nil, store.Invalid("", "project_id is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	embeddingProvider := cfg.EmbeddingProvider
	if embeddingProvider == "" {
		embeddingProvider = "mock"
	}

	ingestionCfg := ingestion.DefaultConfig()
	ingestionCfg.EmbeddingProvider = embeddingProvider
	ingestionCfg.LocalDataDir = cfg.DataDir
	if cfg.ParserMode != "" {
		ingestionCfg.ParserMode = cfg.ParserMode
	}
	if len(cfg.ExcludeGlobs) > 0 {
		ingestionCfg.ExcludeGlobs = cfg.ExcludeGlobs
	}
	if cfg.MaxFileSizeBytes > 0 {
		ingestionCfg.MaxFileSizeBytes = cfg.MaxFileSizeBytes
	}
	if cfg.MaxCodeTextBytes > 0 {
		ingestionCfg.MaxCodeTextBytes = cfg.MaxCodeTextBytes
	}
	if cfg.Concurrency.ParseWorkers > 0 {
		ingestionCfg.Concurrency.ParseWorkers = cfg.Concurrency.ParseWorkers
	}
	if cfg.Concurrency.EmbedWorkers > 0 {
		ingestionCfg.Concurrency.EmbedWorkers = cfg.Concurrency.EmbedWorkers
	}

	pipeline, err := ingestion.NewLocalPipeline(ingestion.Config{
		ProjectID:       cfg.ProjectID,
		RepoSource:      ingestion.RepoSource{Type: "local_path", Value: "."},
		IngestionConfig: ingestionCfg,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("kgeapi: start pipeline: %w", err)
	}

	embedder, err := ingestion.CreateEmbeddingProvider(embeddingProvider, logger)
	if err != nil {
		pipeline.Close()
		return nil, fmt.Errorf("kgeapi: create embedding provider: %w", err)
	}

	llmCfg := cfg.LLMProvider
	if llmCfg.Type == "" {
		llmCfg.Type = "mock"
	}
	llmProv, err := llm.NewProvider(llmCfg)
	if err != nil {
		pipeline.Close()
		return nil, fmt.Errorf("kgeapi: create llm provider: %w", err)
	}

	db := pipeline.Store()

	e := &Engine{
		projectID:      cfg.ProjectID,
		logger:         logger,
		pipeline:       pipeline,
		db:             db,
		dispatcher:     docingest.NewDispatcher(nil),
		embedder:       embedder,
		llmProv:        llmProv,
		embeddingModel: embeddingModelTag,
		logQueries:     cfg.LogQueries,
		memoryMgr: memory.New(memory.Config{
			DB:       db,
			Provider: llmProv,
			Model:    llmCfg.DefaultModel,
			Logger:   logger,
		}),
	}

	if cfg.EnableHyDE {
		e.hydeExp = hyde.New(hyde.Config{
			LLM:      llmProv,
			Embedder: embedder,
			Model:    llmCfg.DefaultModel,
			Logger:   logger,
		})
	}

	return e, nil
}

// Close releases the project's storage handle.
func (e *Engine) Close() error {
	return e.pipeline.Close()
}

// Store exposes the underlying storage handle for callers (cmd/kge's
// status/reset commands, internal/mcpserver's session tools) that need
// direct access to state the nine façade operations don't cover.
func (e *Engine) Store() *store.DB { return e.db }

// Memory exposes the conversation-memory manager for session-aware
// callers. Session lifecycle isn't one of spec.md §6's nine operations,
// so it's reached directly rather than wrapped a second time here.
func (e *Engine) Memory() *memory.Manager { return e.memoryMgr }

// CritiqueOptions re-exports critique.Options so callers that want the
// draft-critique loop don't need to import pkg/critique directly.
type CritiqueOptions = critique.Options

// CritiqueResult re-exports critique.Result.
type CritiqueResult = critique.Result

// Critique runs the draft-critique loop over a generated answer. Like
// Memory, this isn't one of the nine named operations, but a complete
// engine needs some entry point for it; Engine's is the natural place to
// park a thin pass-through so callers don't reach into pkg/critique and
// pkg/context separately to build the []critique.Source slice.
func (e *Engine) Critique(ctx context.Context, draft, query string, sources []critique.Source, opts critique.Options, revise critique.RevisionCallback) (critique.Result, error) {
	return critique.Run(ctx, draft, query, sources, opts, revise, e.logger)
}
