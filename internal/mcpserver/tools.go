// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	kgectx "github.com/kraklabs/kge/pkg/context"
	"github.com/kraklabs/kge/pkg/kgeapi"
)

// RegisterAll wires every one of the engine's nine operations into registry
// as an MCP tool.
func RegisterAll(registry *Registry, engine *kgeapi.Engine) {
	registry.Register(&indexDirectoryTool{engine})
	registry.Register(&indexFileTool{engine})
	registry.Register(&indexDocumentTool{engine})
	registry.Register(&searchTool{engine})
	registry.Register(&getContextTool{engine})
	registry.Register(&getRequirementsTool{engine})
	registry.Register(&queryDocumentsTool{engine})
	registry.Register(&findDocumentByPathTool{engine})
	registry.Register(&recordFeedbackTool{engine})
}

func invalidParams(err error) (*ToolsCallResult, error) {
	return ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
}

// --- index_directory ---

type indexDirectoryParams struct {
	Path  string `json:"path"`
	Force bool   `json:"force,omitempty"`
}

type indexDirectoryTool struct{ engine *kgeapi.Engine }

func (t *indexDirectoryTool) Name() string { return "index_directory" }
func (t *indexDirectoryTool) Description() string {
	return "Walk a directory, parsing and indexing every supported source and document file into the knowledge graph."
}
func (t *indexDirectoryTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "path": {"type": "string", "description": "Directory to index"},
    "force": {"type": "boolean", "description": "Reindex files even if their content hash is unchanged"}
  },
  "required": ["path"]
}`)
}
func (t *indexDirectoryTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	var p indexDirectoryParams
	if err := json.Unmarshal(params, &p); err != nil {
		return invalidParams(err)
	}
	result, err := t.engine.IndexDirectory(ctx, p.Path, kgeapi.IndexOptions{Force: p.Force})
	if err != nil {
		return ErrorResult(err.Error()), nil
	}
	return JSONResult(result)
}

// --- index_file ---

type indexFileParams struct {
	Path  string `json:"path"`
	Force bool   `json:"force,omitempty"`
}

type indexFileTool struct{ engine *kgeapi.Engine }

func (t *indexFileTool) Name() string { return "index_file" }
func (t *indexFileTool) Description() string {
	return "Parse and index a single source file into the knowledge graph, without sweeping its containing directory."
}
func (t *indexFileTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "path": {"type": "string", "description": "Source file to index"},
    "force": {"type": "boolean", "description": "Reindex even if the content hash is unchanged"}
  },
  "required": ["path"]
}`)
}
func (t *indexFileTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	var p indexFileParams
	if err := json.Unmarshal(params, &p); err != nil {
		return invalidParams(err)
	}
	result, err := t.engine.IndexFile(ctx, p.Path, kgeapi.IndexOptions{Force: p.Force})
	if err != nil {
		return ErrorResult(err.Error()), nil
	}
	return JSONResult(result)
}

// --- index_document ---

type indexDocumentParams struct {
	Path  string `json:"path"`
	Force bool   `json:"force,omitempty"`
}

type indexDocumentTool struct{ engine *kgeapi.Engine }

func (t *indexDocumentTool) Name() string { return "index_document" }
func (t *indexDocumentTool) Description() string {
	return "Parse and index a single document (markdown, yaml, json, toml, html, csv, xml, txt, or pdf) into sections, chunks, and requirements."
}
func (t *indexDocumentTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "path": {"type": "string", "description": "Document file to index"},
    "force": {"type": "boolean", "description": "Reindex even if the content hash is unchanged"}
  },
  "required": ["path"]
}`)
}
func (t *indexDocumentTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	var p indexDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return invalidParams(err)
	}
	result, err := t.engine.IndexDocument(ctx, p.Path, kgeapi.IndexOptions{Force: p.Force})
	if err != nil {
		return ErrorResult(err.Error()), nil
	}
	return JSONResult(result)
}

// --- search ---

type searchParams struct {
	Query       string             `json:"query"`
	EntityTypes []string           `json:"entity_types,omitempty"`
	Strategies  map[string]bool    `json:"strategies,omitempty"`
	Weights     map[string]float64 `json:"weights,omitempty"`
	MinScore    float64            `json:"min_score,omitempty"`
	Limit       int                `json:"limit,omitempty"`
	GraphDepth  int                `json:"graph_depth,omitempty"`
	UseHyDE     bool               `json:"use_hyde,omitempty"`
}

func (p searchParams) toOptions() kgeapi.SearchOptions {
	return kgeapi.SearchOptions{
		EntityTypes: p.EntityTypes,
		Strategies:  p.Strategies,
		Weights:     p.Weights,
		MinScore:    p.MinScore,
		Limit:       p.Limit,
		GraphDepth:  p.GraphDepth,
		UseHyDE:     p.UseHyDE,
	}
}

type searchTool struct{ engine *kgeapi.Engine }

func (t *searchTool) Name() string { return "search" }
func (t *searchTool) Description() string {
	return "Run multi-strategy (keyword, semantic, graph) retrieval over the knowledge graph and return RRF-fused, ranked entities."
}
func (t *searchTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "Natural-language or keyword query"},
    "entity_types": {"type": "array", "items": {"type": "string"}, "description": "Restrict to these entity types"},
    "min_score": {"type": "number", "description": "Drop results below this fused score"},
    "limit": {"type": "integer", "description": "Maximum results to return", "default": 20},
    "graph_depth": {"type": "integer", "description": "Graph-expansion hop depth"},
    "use_hyde": {"type": "boolean", "description": "Embed a hypothetical answer instead of the literal query"}
  },
  "required": ["query"]
}`)
}
func (t *searchTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	var p searchParams
	if err := json.Unmarshal(params, &p); err != nil {
		return invalidParams(err)
	}
	if p.Query == "" {
		return ErrorResult("query is required"), nil
	}
	result, err := t.engine.Search(ctx, p.Query, p.toOptions())
	if err != nil {
		return ErrorResult(err.Error()), nil
	}
	return JSONResult(result)
}

// --- get_context ---

type getContextParams struct {
	searchParams
	MaxTokens          int    `json:"max_tokens,omitempty"`
	Format             string `json:"format,omitempty"`
	IncludeSources     bool   `json:"include_sources,omitempty"`
	IncludeCodeContent bool   `json:"include_code_content,omitempty"`
	GroupByType        bool   `json:"group_by_type,omitempty"`
}

type getContextTool struct{ engine *kgeapi.Engine }

func (t *getContextTool) Name() string { return "get_context" }
func (t *getContextTool) Description() string {
	return "Run search and assemble the ranked results into a single token-budgeted context block, ready to paste into a prompt."
}
func (t *getContextTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string"},
    "entity_types": {"type": "array", "items": {"type": "string"}},
    "limit": {"type": "integer", "default": 20},
    "max_tokens": {"type": "integer", "description": "Token budget for the assembled context", "default": 4000},
    "format": {"type": "string", "enum": ["markdown", "xml", "plain"], "default": "markdown"},
    "include_sources": {"type": "boolean", "default": true},
    "include_code_content": {"type": "boolean"},
    "group_by_type": {"type": "boolean"}
  },
  "required": ["query"]
}`)
}
func (t *getContextTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	p := getContextParams{IncludeSources: true}
	if err := json.Unmarshal(params, &p); err != nil {
		return invalidParams(err)
	}
	if p.Query == "" {
		return ErrorResult("query is required"), nil
	}
	format := kgectx.FormatMarkdown
	if p.Format != "" {
		format = kgectx.Format(p.Format)
	}
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	result, err := t.engine.GetContext(ctx, p.Query, kgeapi.ContextOptions{
		Search: p.toOptions(),
		Context: kgectx.Options{
			MaxTokens:          maxTokens,
			Format:             format,
			IncludeSources:     p.IncludeSources,
			IncludeCodeContent: p.IncludeCodeContent,
			GroupByType:        p.GroupByType,
		},
	})
	if err != nil {
		return ErrorResult(err.Error()), nil
	}
	return JSONResult(result)
}

// --- get_requirements ---

type getRequirementsParams struct {
	ReqType string `json:"req_type,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type getRequirementsTool struct{ engine *kgeapi.Engine }

func (t *getRequirementsTool) Name() string { return "get_requirements" }
func (t *getRequirementsTool) Description() string {
	return "List requirement entities extracted during document ingestion, optionally filtered to one requirement type (requirement, feature, user-story, constraint)."
}
func (t *getRequirementsTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "req_type": {"type": "string", "description": "Filter to this req_type, e.g. 'user-story'"},
    "limit": {"type": "integer", "default": 100}
  }
}`)
}
func (t *getRequirementsTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	var p getRequirementsParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return invalidParams(err)
		}
	}
	result, err := t.engine.GetRequirements(ctx, kgeapi.RequirementFilter{ReqType: p.ReqType, Limit: p.Limit})
	if err != nil {
		return ErrorResult(err.Error()), nil
	}
	return JSONResult(result)
}

// --- query_documents ---

type queryDocumentsParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type queryDocumentsTool struct{ engine *kgeapi.Engine }

func (t *queryDocumentsTool) Name() string { return "query_documents" }
func (t *queryDocumentsTool) Description() string {
	return "Search scoped to document and section entities, returning document-shaped hits (path, title, snippet) instead of generic entities."
}
func (t *queryDocumentsTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string"},
    "limit": {"type": "integer", "default": 20}
  },
  "required": ["query"]
}`)
}
func (t *queryDocumentsTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	var p queryDocumentsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return invalidParams(err)
	}
	if p.Query == "" {
		return ErrorResult("query is required"), nil
	}
	result, err := t.engine.QueryDocuments(ctx, p.Query, kgeapi.SearchOptions{Limit: p.Limit})
	if err != nil {
		return ErrorResult(err.Error()), nil
	}
	return JSONResult(result)
}

// --- find_document_by_path ---

type findDocumentByPathParams struct {
	Path string `json:"path"`
}

type findDocumentByPathTool struct{ engine *kgeapi.Engine }

func (t *findDocumentByPathTool) Name() string { return "find_document_by_path" }
func (t *findDocumentByPathTool) Description() string {
	return "Look up the indexed document entity for an exact file path."
}
func (t *findDocumentByPathTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "path": {"type": "string"}
  },
  "required": ["path"]
}`)
}
func (t *findDocumentByPathTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	var p findDocumentByPathParams
	if err := json.Unmarshal(params, &p); err != nil {
		return invalidParams(err)
	}
	ent, err := t.engine.FindDocumentByPath(ctx, p.Path)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}
	return JSONResult(ent)
}

// --- record_feedback ---

type recordFeedbackParams struct {
	LogID  string `json:"log_id"`
	Useful bool   `json:"useful"`
}

type recordFeedbackTool struct{ engine *kgeapi.Engine }

func (t *recordFeedbackTool) Name() string { return "record_feedback" }
func (t *recordFeedbackTool) Description() string {
	return "Mark a previously logged search or get_context call (by its log id) as useful or not, for retrieval-quality analysis."
}
func (t *recordFeedbackTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "log_id": {"type": "string"},
    "useful": {"type": "boolean"}
  },
  "required": ["log_id", "useful"]
}`)
}
func (t *recordFeedbackTool) Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	var p recordFeedbackParams
	if err := json.Unmarshal(params, &p); err != nil {
		return invalidParams(err)
	}
	if err := t.engine.RecordFeedback(ctx, p.LogID, p.Useful); err != nil {
		return ErrorResult(err.Error()), nil
	}
	return JSONResult(map[string]any{"log_id": p.LogID, "useful": p.Useful})
}
