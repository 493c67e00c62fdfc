// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package kgeapi

import (
	"context"
	"strings"

	"github.com/kraklabs/kge/pkg/store"
)

const snippetLen = 240

// QueryDocuments runs Search scoped to document and section entities,
// returning document-shaped results (path, title, snippet) instead of
// the generic entity shape Search returns.
func (e *Engine) QueryDocuments(ctx context.Context, query string, opts SearchOptions) ([]DocumentResult, error) {
	scoped := opts
	scoped.EntityTypes = []string{string(store.EntityDocument), string(store.EntitySection)}

	fused, _, err := e.runSearch(ctx, query, scoped)
	if err != nil {
		return nil, err
	}

	out := make([]DocumentResult, 0, len(fused))
	for _, f := range fused {
		title := f.Entity.Name
		path := f.Entity.FilePath
		if f.Entity.Type == store.EntitySection {
			if parentPath, ok := f.Entity.Metadata["section_title"].(string); ok {
				title = parentPath
			}
		}
		out = append(out, DocumentResult{
			EntityID: f.Entity.ID,
			Path:     path,
			Title:    title,
			Snippet:  snippet(f.Entity.Content),
			Score:    f.FusedScore,
		})
	}
	return out, nil
}

// FindDocumentByPath resolves the document entity for an exact path, or
// a NotFound *store.Error if none has been indexed under that path.
func (e *Engine) FindDocumentByPath(ctx context.Context, path string) (*store.Entity, error) {
	return e.db.GetEntity(ctx, e.projectID, store.EntityLookup{QualifiedName: path, Type: store.EntityDocument})
}

func snippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= snippetLen {
		return content
	}
	return content[:snippetLen] + "..."
}
