// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package kgeapi

import (
	"context"
	"fmt"
	"os"

	"github.com/kraklabs/kge/pkg/docingest"
	"github.com/kraklabs/kge/pkg/store"
)

// IndexDirectory walks path and indexes every source file under it,
// reusing the one long-lived pipeline/store handle the Engine was
// constructed with. Individual file failures are captured in
// Errors[] rather than aborting the run (spec.md §7).
func (e *Engine) IndexDirectory(ctx context.Context, path string, _ IndexOptions) (IndexResult, error) {
	e.pipeline.SetRepoSource(path)

	runResult, err := e.pipeline.Run(ctx)
	if err != nil {
		return IndexResult{}, fmt.Errorf("kgeapi: index directory %s: %w", path, err)
	}

	result := IndexResult{
		EntitiesCreated:      runResult.EntitiesSent,
		RelationshipsCreated: runResult.RelationshipsWritten,
		EmbeddingsGenerated:  runResult.FunctionsExtracted + runResult.TypesExtracted - runResult.EmbeddingErrors,
		FilesProcessed:       runResult.FilesProcessed,
		FilesSkipped:         runResult.ParseErrors,
	}
	if result.EmbeddingsGenerated < 0 {
		result.EmbeddingsGenerated = 0
	}
	if runResult.ParseErrors > 0 {
		result.Errors = append(result.Errors, FileError{
			Path:  path,
			Error: fmt.Sprintf("%d file(s) failed to parse (%.1f%% of the batch); see logs for per-file detail", runResult.ParseErrors, runResult.ParseErrorRate),
		})
	}
	return result, nil
}

// IndexFile parses and writes a single source file, the incremental
// counterpart to IndexDirectory. path is used both as the file's
// qualified-name-relative path and as the filesystem path to read.
func (e *Engine) IndexFile(ctx context.Context, path string, _ IndexOptions) (IndexResult, error) {
	fileResult, err := e.pipeline.IndexFile(ctx, path, path)
	if err != nil {
		return IndexResult{Errors: []FileError{{Path: path, Error: err.Error()}}}, nil
	}
	return IndexResult{
		EntitiesCreated:      fileResult.EntitiesCreated,
		RelationshipsCreated: fileResult.RelationshipsCreated,
		EmbeddingsGenerated:  fileResult.FunctionsExtracted + fileResult.TypesExtracted,
		FilesProcessed:       1,
	}, nil
}

// IndexDocument parses and writes a single non-code document (markdown,
// YAML, JSON, TOML, HTML, CSV, XML, plain text), then embeds its section
// chunks so they participate in semantic search.
func (e *Engine) IndexDocument(ctx context.Context, path string, _ IndexOptions) (IndexResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return IndexResult{}, fmt.Errorf("kgeapi: read document %s: %w", path, err)
	}

	doc, err := e.dispatcher.Parse(path, content)
	if err != nil {
		return IndexResult{Errors: []FileError{{Path: path, Error: err.Error()}}}, nil
	}

	writeResult, err := docingest.Write(ctx, e.db, e.projectID, doc)
	if err != nil {
		return IndexResult{}, fmt.Errorf("kgeapi: write document %s: %w", path, err)
	}
	if writeResult.Skipped {
		return IndexResult{Skipped: true, FilesProcessed: 1}, nil
	}

	embedded := e.embedDocumentChunks(ctx, doc)

	return IndexResult{
		EntitiesCreated:      writeResult.EntitiesCreated,
		RelationshipsCreated: writeResult.RelationshipsCreated,
		CrossDocLinks:        writeResult.CrossDocLinks,
		EmbeddingsGenerated:  embedded,
		FilesProcessed:       1,
	}, nil
}

// embedDocumentChunks embeds every chunk Write just persisted, looked up
// by the deterministic qualified name Write assigns chunks (chunk.ID),
// since Write itself doesn't return a parse-id -> store-id map.
func (e *Engine) embedDocumentChunks(ctx context.Context, doc *docingest.Document) int {
	embedded := 0
	for _, sec := range doc.Sections {
		chunks := sec.Chunks
		if len(chunks) == 0 {
			continue
		}
		for _, chunk := range chunks {
			if chunk.Content == "" {
				continue
			}
			ent, err := e.db.GetEntity(ctx, e.projectID, store.EntityLookup{QualifiedName: chunk.ID, Type: store.EntitySection})
			if err != nil {
				e.logger.Warn("kgeapi.embed_chunk.lookup_failed", "chunk_id", chunk.ID, "error", err)
				continue
			}
			vec, err := e.embedder.Embed(ctx, chunk.Content)
			if err != nil {
				e.logger.Warn("kgeapi.embed_chunk.failed", "chunk_id", chunk.ID, "error", err)
				continue
			}
			if err := e.db.UpsertEmbedding(ctx, ent.ID, e.embeddingModel, vec); err != nil {
				e.logger.Warn("kgeapi.embed_chunk.store_failed", "chunk_id", chunk.ID, "error", err)
				continue
			}
			embedded++
		}
	}
	return embedded
}
