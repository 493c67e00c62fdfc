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

// Package ingestion provides the code indexing pipeline for kge.
//
// The ingestion package is responsible for parsing source code, extracting
// semantic information (functions, types, calls), generating embeddings,
// and storing the results in the project's SQLite store (pkg/store) for
// code intelligence queries.
//
// # Pipeline Overview
//
// The ingestion pipeline processes code in five stages:
//
//  1. Discovery: Find source files using configurable glob patterns
//  2. Parsing: Use Tree-sitter to parse code into ASTs
//  3. Extraction: Extract functions, types, and call relationships
//  4. Embedding: Generate vector embeddings for semantic search
//  5. Storage: Store entities and relationships in the SQLite store
//
// Each Run executes all five stages over every loaded file.
//
// # Supported Languages
//
// The following languages are parsed with Tree-sitter grammars:
//   - Go (.go)
//   - TypeScript (.ts, .tsx)
//   - JavaScript (.js, .jsx)
//
// Protocol Buffers (.proto) are parsed for services, RPCs, and messages by a
// line-based scanner. Files in any other detected language, Python (.py)
// included, yield only their file entity.
//
// Each language parser extracts:
//   - Functions/methods with signatures and bodies
//   - Types, interfaces, classes, and structs
//   - Function call relationships
//   - File and package metadata
//
// # Quick Start
//
// Create and run a local indexing pipeline:
//
//	config := ingestion.Config{
//	    ProjectID: "my-project",
//	    RepoSource: ingestion.RepoSource{
//	        Type:  "git_url",
//	        Value: "https://github.com/user/repo.git",
//	    },
//	    IngestionConfig: ingestion.DefaultConfig(),
//	}
//
//	pipeline, err := ingestion.NewLocalPipeline(config, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pipeline.Close()
//
//	result, err := pipeline.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Indexed %d files, %d functions\n",
//	    result.FilesProcessed, result.FunctionsExtracted)
//
// # Key Components
//
// LocalPipeline is the main entry point for indexing:
//
//	pipeline, err := ingestion.NewLocalPipeline(config, logger)
//	result, err := pipeline.Run(ctx)
//
// LocalPipeline orchestrates the entire 5-stage pipeline without requiring
// a central service, storing results in a local SQLite database (store.DB).
//
// Batcher splits a run of entity writes into index ranges:
//
//	batcher := ingestion.NewBatcher(1000)
//	ranges := batcher.Chunk(len(entities))
//
// Each Range covers at most 1000 entities, so one storage transaction
// never holds every entity of a run.
//
// CallResolver handles import resolution and cross-file references:
//
//	resolver := ingestion.NewCallResolver()
//	resolver.BuildIndex(files, functions, imports, packageNames)
//	resolvedCalls := resolver.ResolveCalls(unresolvedCalls)
//
// CallResolver maps function calls across package boundaries, enabling
// accurate call graph construction.
//
// EmbeddingGenerator produces semantic embeddings concurrently:
//
//	embeddingGen := ingestion.NewEmbeddingGenerator(provider, concurrency, logger)
//	result, err := embeddingGen.EmbedFunctions(ctx, functions)
//
// Supports multiple providers: OpenAI, Nomic, Ollama, and Mock for testing.
//
// RepoLoader loads code from git repositories or local paths:
//
//	repoLoader := ingestion.NewRepoLoader(logger)
//	result, err := repoLoader.LoadRepository(repoSource, excludeGlobs, maxFileSizeBytes)
//	defer repoLoader.Close()  // Cleans up temp directories
//
// # Configuration
//
// The pipeline is configured through Config and IngestionConfig:
//
//	config := &ingestion.Config{
//	    ProjectID: "my-project",
//	    RepoSource: ingestion.RepoSource{
//	        Type:  "local_path",
//	        Value: "/path/to/code",
//	    },
//	    IngestionConfig: ingestion.IngestionConfig{
//	        ParserMode:        "auto",           // "treesitter", "simplified", "auto"
//	        EmbeddingProvider: "openai",         // "openai", "nomic", "ollama", "mock"
//	        MaxFileSizeBytes:  1024 * 1024,      // 1MB default
//	        MaxCodeTextBytes:  100 * 1024,       // 100KB default
//	        ExcludeGlobs: []string{
//	            "node_modules/**",
//	            ".git/**",
//	            "vendor/**",
//	        },
//	        Concurrency: struct {
//	            ParseWorkers int
//	            EmbedWorkers int
//	        }{
//	            ParseWorkers: 4,
//	            EmbedWorkers: 8,
//	        },
//	        LocalDataDir:         "~/.kge/data/my-project",
//	        BatchTargetMutations: 2000,
//	    },
//	}
//
// Use DefaultConfig() for sensible defaults.
//
// # Incremental Updates
//
// LocalPipeline.Run does not skip unchanged files: every call loads,
// parses, embeds and writes every file again, and the store's upserts
// replace the earlier rows:
//
//	// First run: indexes everything
//	result1, err := pipeline.Run(ctx)
//
//	// Second run: indexes everything again
//	result2, err := pipeline.Run(ctx)
//
// Run does not save or read checkpoints. CheckpointManager (configured by
// IngestionConfig.CheckpointPath) and DeltaDetector are available to
// callers but are not used by Run.
//
// # Metrics
//
// Indexing progress and statistics are available through the result:
//
//	result, err := pipeline.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Files processed: %d\n", result.FilesProcessed)
//	fmt.Printf("Functions extracted: %d\n", result.FunctionsExtracted)
//	fmt.Printf("Types extracted: %d\n", result.TypesExtracted)
//	fmt.Printf("Parse errors: %d (%.1f%%)\n",
//	    result.ParseErrors, result.ParseErrorRate)
//	fmt.Printf("Total duration: %v\n", result.TotalDuration)
//
// The package registers its Prometheus collectors with the default
// registry the first time an embedding call is retried; only the retry
// counter is incremented, and the package serves no metrics endpoint.
package ingestion
