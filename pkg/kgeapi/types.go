// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package kgeapi

import (
	"github.com/kraklabs/kge/pkg/context"
)

// IndexOptions configures an index_directory/index_file/index_document call.
type IndexOptions struct {
	// Force reindexes even when the stored content hash already matches.
	Force bool
}

// FileError is one per-file failure captured during a batch without
// aborting the rest of the batch (spec.md §7's ParseFailure policy).
type FileError struct {
	Path  string
	Error string
}

// IndexResult is the structured result every index_* operation returns,
// using the fixed field names spec.md §6 specifies across the whole tool
// surface.
type IndexResult struct {
	EntitiesCreated      int
	RelationshipsCreated int
	CrossDocLinks        int
	EmbeddingsGenerated  int
	Skipped              bool
	FilesProcessed       int
	FilesSkipped         int
	Errors               []FileError
}

// SearchOptions configures a search call.
type SearchOptions struct {
	EntityTypes    []string
	Strategies     map[string]bool
	Weights        map[string]float64
	MinScore       float64
	Limit          int
	GraphDepth     int
	UseHyDE        bool
}

// SearchResultItem is one ranked hit returned by Search.
type SearchResultItem struct {
	EntityID   string
	Name       string
	Type       string
	File       string
	Line       int
	FusedScore float64
}

// SearchResult is search's structured result, plus the log id assigned
// when query logging is enabled (needed by RecordFeedback).
type SearchResult struct {
	Results []SearchResultItem
	LogID   string
}

// ContextOptions configures a get_context call; mirrors pkg/context's
// Options plus the query-side knobs (entity types, strategies) Search
// also takes, since context assembly always runs a search first.
type ContextOptions struct {
	Search  SearchOptions
	Context context.Options
}

// ContextResult is get_context's structured result.
type ContextResult struct {
	Context    string
	Sources    []context.Source
	TokenCount int
	Truncated  bool
	LogID      string
}

// RequirementFilter narrows get_requirements.
type RequirementFilter struct {
	ReqType  string // metadata.req_type, e.g. "must", "should"
	Limit    int
}

// Requirement is one requirement/feature/user-story/constraint entity.
type Requirement struct {
	ID          string
	Description string
	ReqType     string
	File        string
}

// DocumentResult is one hit returned by QueryDocuments.
type DocumentResult struct {
	EntityID string
	Path     string
	Title    string
	Snippet  string
	Score    float64
}
