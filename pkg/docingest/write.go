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

package docingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kraklabs/kge/pkg/store"
)

// WriteResult summarizes what Write persisted.
type WriteResult struct {
	Skipped              bool
	EntitiesCreated      int
	RelationshipsCreated int
	CrossDocLinks        int
}

// Write persists one parsed Document into db: the document entity itself,
// one entity per section chunk, one entity per child, the parse's own
// relations (reconciled through an id map since the store assigns its own
// canonical ids on first insert, exactly as pkg/ingestion's code write
// path does), and finally the document-code linker's DOCUMENTS edges plus
// doc-to-doc RELATES_TO edges for internal links. Re-ingesting a document
// whose stored hash already matches is a no-op (spec.md §4.4's "skip"
// outcome).
func Write(ctx context.Context, db *store.DB, projectID string, doc *Document) (WriteResult, error) {
	var result WriteResult

	if existing, err := db.GetEntity(ctx, projectID, store.EntityLookup{QualifiedName: doc.Path, Type: store.EntityDocument}); err == nil {
		if hash, _ := existing.Metadata["hash"].(string); hash == doc.Hash && doc.Hash != "" {
			result.Skipped = true
			return result, nil
		}
	}

	ids := make(map[string]string, len(doc.Sections)+len(doc.Children)+1)

	docEnt, err := db.UpsertEntity(ctx, &store.Entity{
		ProjectID: projectID, Type: store.EntityDocument, Name: doc.Title,
		QualifiedName: doc.Path, FilePath: doc.Path,
		Metadata: map[string]any{"hash": doc.Hash, "format": doc.Format},
	})
	if err != nil {
		return result, fmt.Errorf("docingest: upsert document %s: %w", doc.Path, err)
	}
	ids[doc.ID] = docEnt.ID
	result.EntitiesCreated++

	for _, sec := range doc.Sections {
		for i, chunk := range sec.Chunks {
			ent, err := db.UpsertEntity(ctx, &store.Entity{
				ProjectID: projectID, Type: store.EntitySection, Name: sectionName(sec, i),
				QualifiedName: chunk.ID, Content: chunk.Content, FilePath: doc.Path,
				Metadata: map[string]any{"level": sec.Level, "section_title": sec.Title},
			})
			if err != nil {
				return result, fmt.Errorf("docingest: upsert section %s: %w", chunk.ID, err)
			}
			ids[chunk.ID] = ent.ID
			result.EntitiesCreated++
			if i > 0 {
				if _, err := db.UpsertRelationship(ctx, &store.Relationship{
					ProjectID: projectID, SourceID: ids[sec.ID], TargetID: ent.ID, Relationship: store.RelContains,
				}); err != nil {
					return result, fmt.Errorf("docingest: upsert chunk continuation edge: %w", err)
				}
				result.RelationshipsCreated++
			}
		}
		if len(sec.Chunks) == 0 {
			// ChunkSection always returns at least one chunk, so this
			// only happens for sections a pipeline never chunked (the
			// XML pipeline's); still create an entity so CONTAINS edges
			// referencing it resolve.
			ent, err := db.UpsertEntity(ctx, &store.Entity{
				ProjectID: projectID, Type: store.EntitySection, Name: sec.Title,
				QualifiedName: sec.ID, FilePath: doc.Path,
				Metadata: map[string]any{"level": sec.Level},
			})
			if err != nil {
				return result, fmt.Errorf("docingest: upsert empty section %s: %w", sec.ID, err)
			}
			ids[sec.ID] = ent.ID
			result.EntitiesCreated++
		}
	}

	for _, child := range doc.Children {
		qn := child.QualifiedName
		if qn == "" {
			qn = child.ID
		}
		ent, err := db.UpsertEntity(ctx, &store.Entity{
			ProjectID: projectID, Type: store.EntityType(child.Type), Name: child.Name,
			QualifiedName: qn, Content: child.Content, Summary: child.Summary,
			FilePath: doc.Path, Metadata: child.Metadata,
		})
		if err != nil {
			return result, fmt.Errorf("docingest: upsert child %s: %w", child.ID, err)
		}
		ids[child.ID] = ent.ID
		result.EntitiesCreated++

		if configuresTarget, ok, err := findConfiguresTarget(ctx, db, projectID, child); err == nil && ok {
			if _, err := db.UpsertRelationship(ctx, &store.Relationship{
				ProjectID: projectID, SourceID: ent.ID, TargetID: configuresTarget.ID, Relationship: store.RelConfigures,
			}); err != nil {
				return result, fmt.Errorf("docingest: upsert configures edge %s: %w", child.ID, err)
			}
			result.RelationshipsCreated++
		}
	}

	for _, rel := range doc.Relations {
		srcID, ok1 := ids[rel.SourceID]
		dstID, ok2 := ids[rel.TargetID]
		if !ok1 || !ok2 {
			continue
		}
		if _, err := db.UpsertRelationship(ctx, &store.Relationship{
			ProjectID: projectID, SourceID: srcID, TargetID: dstID, Relationship: store.RelationshipType(rel.Relationship),
		}); err != nil {
			return result, fmt.Errorf("docingest: upsert relation %s->%s: %w", rel.SourceID, rel.TargetID, err)
		}
		result.RelationshipsCreated++
	}

	crossLinks, err := linkCodeReferences(ctx, db, projectID, doc, ids)
	if err != nil {
		return result, err
	}
	result.CrossDocLinks += crossLinks
	result.RelationshipsCreated += crossLinks

	docLinks, err := linkDocumentLinks(ctx, db, projectID, docEnt.ID, doc.Links)
	if err != nil {
		return result, err
	}
	result.RelationshipsCreated += docLinks

	return result, nil
}

func sectionName(sec Section, chunkIndex int) string {
	if chunkIndex == 0 {
		return sec.Title
	}
	return fmt.Sprintf("%s (part %d)", sec.Title, chunkIndex+1)
}

// findConfiguresTarget looks for an existing code entity sharing a
// component/variable child's name, the other half of the CONFIGURES rule
// pipelines can't apply themselves since they never see the store.
func findConfiguresTarget(ctx context.Context, db *store.DB, projectID string, child ChildEntity) (*store.Entity, bool, error) {
	if child.Type != "component" && child.Type != "variable" {
		return nil, false, nil
	}
	ent, err := db.GetEntity(ctx, projectID, store.EntityLookup{Name: child.Name})
	if err != nil {
		return nil, false, nil
	}
	return ent, true, nil
}

// linkCodeReferences runs the document-code linker over every section and
// child's text, emitting a DOCUMENTS edge from the (already-written) prose
// entity to each resolved code entity.
func linkCodeReferences(ctx context.Context, db *store.DB, projectID string, doc *Document, ids map[string]string) (int, error) {
	count := 0

	link := func(sourceParseID, text string) error {
		storeID, ok := ids[sourceParseID]
		if !ok || text == "" {
			return nil
		}
		refs, err := LinkReferences(ctx, db, projectID, text)
		if err != nil {
			return err
		}
		seen := map[string]bool{}
		for _, r := range refs {
			if !r.Resolved || seen[r.Entity.ID] {
				continue
			}
			seen[r.Entity.ID] = true
			weight := 1.0
			if r.Ref.InCodeBlock {
				weight = 0.8
			}
			if _, err := db.UpsertRelationship(ctx, &store.Relationship{
				ProjectID: projectID, SourceID: storeID, TargetID: r.Entity.ID,
				Relationship: store.RelDocuments, Weight: weight,
			}); err != nil {
				return err
			}
			count++
		}
		return nil
	}

	for _, sec := range doc.Sections {
		if err := link(sec.ID, sec.Content); err != nil {
			return count, fmt.Errorf("docingest: link references in %s: %w", sec.ID, err)
		}
	}
	for _, child := range doc.Children {
		if err := link(child.ID, child.Content); err != nil {
			return count, fmt.Errorf("docingest: link references in %s: %w", child.ID, err)
		}
	}

	return count, nil
}

// linkDocumentLinks resolves every internal link to another already-
// indexed document and emits a RELATES_TO edge.
func linkDocumentLinks(ctx context.Context, db *store.DB, projectID, docStoreID string, links []Link) (int, error) {
	count := 0
	seen := map[string]bool{}
	for _, l := range links {
		if !l.Internal {
			continue
		}
		target := filepath.Clean(l.URL)
		if seen[target] {
			continue
		}
		ent, err := db.GetEntity(ctx, projectID, store.EntityLookup{QualifiedName: target, Type: store.EntityDocument})
		if err != nil {
			continue
		}
		seen[target] = true
		if _, err := db.UpsertRelationship(ctx, &store.Relationship{
			ProjectID: projectID, SourceID: docStoreID, TargetID: ent.ID, Relationship: store.RelRelatesTo,
		}); err != nil {
			return count, fmt.Errorf("docingest: upsert relates_to edge: %w", err)
		}
		count++
	}
	return count, nil
}
