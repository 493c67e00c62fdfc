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

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kraklabs/kge/pkg/store"
)

// writeCounts summarizes what writeEntities persisted.
type writeCounts struct {
	Entities      int
	Relationships int
}

// writeEntities persists one parsed batch's files, functions, types,
// imports, and DEFINES/CALLS/IMPORTS edges into db, chunking the writes
// through batcher. Because the store assigns its own id on first insert
// of an entity (keyed by qualified name), the parser's content-addressed
// ids only identify entities within this batch; ids maps them to the
// store's canonical ids so relationships can be built afterward.
func writeEntities(
	ctx context.Context,
	db *store.DB,
	projectID string,
	batcher *Batcher,
	files []FileEntity,
	functions []FunctionEntity,
	types []TypeEntity,
	imports []ImportEntity,
	defines []DefinesEdge,
	definesTypes []DefinesTypeEdge,
	calls []CallsEdge,
) (writeCounts, error) {
	ids := make(map[string]string, len(files)+len(functions)+len(types))
	var counts writeCounts

	for _, r := range batcher.Chunk(len(files)) {
		for _, f := range files[r.Start:r.End] {
			ent, err := db.UpsertEntity(ctx, &store.Entity{
				ProjectID:     projectID,
				Type:          store.EntityFile,
				Name:          filepath.Base(f.Path),
				QualifiedName: f.Path,
				FilePath:      f.Path,
				Metadata:      map[string]any{"language": f.Language, "size": f.Size, "hash": f.Hash},
			})
			if err != nil {
				return counts, fmt.Errorf("upsert file %s: %w", f.Path, err)
			}
			ids[f.ID] = ent.ID
			counts.Entities++
		}
	}

	for _, r := range batcher.Chunk(len(functions)) {
		for _, fn := range functions[r.Start:r.End] {
			ent, err := db.UpsertEntity(ctx, &store.Entity{
				ProjectID:     projectID,
				Type:          store.EntityFunction,
				Name:          fn.Name,
				QualifiedName: fn.FilePath + "#" + fn.Name,
				Content:       fn.CodeText,
				Summary:       fn.Signature,
				FilePath:      fn.FilePath,
				StartLine:     fn.StartLine,
				EndLine:       fn.EndLine,
				Metadata:      map[string]any{"start_col": fn.StartCol, "end_col": fn.EndCol},
			})
			if err != nil {
				return counts, fmt.Errorf("upsert function %s: %w", fn.Name, err)
			}
			ids[fn.ID] = ent.ID
			counts.Entities++

			if len(fn.Embedding) > 0 {
				if err := db.UpsertEmbedding(ctx, ent.ID, "code", fn.Embedding); err != nil {
					return counts, fmt.Errorf("upsert function embedding %s: %w", fn.Name, err)
				}
			}
		}
	}

	for _, r := range batcher.Chunk(len(types)) {
		for _, t := range types[r.Start:r.End] {
			ent, err := db.UpsertEntity(ctx, &store.Entity{
				ProjectID:     projectID,
				Type:          typeEntityKind(t.Kind),
				Name:          t.Name,
				QualifiedName: t.FilePath + "#" + t.Name,
				Content:       t.CodeText,
				FilePath:      t.FilePath,
				StartLine:     t.StartLine,
				EndLine:       t.EndLine,
				Metadata:      map[string]any{"kind": t.Kind},
			})
			if err != nil {
				return counts, fmt.Errorf("upsert type %s: %w", t.Name, err)
			}
			ids[t.ID] = ent.ID
			counts.Entities++

			if len(t.Embedding) > 0 {
				if err := db.UpsertEmbedding(ctx, ent.ID, "code", t.Embedding); err != nil {
					return counts, fmt.Errorf("upsert type embedding %s: %w", t.Name, err)
				}
			}
		}
	}

	for _, r := range batcher.Chunk(len(imports)) {
		for _, imp := range imports[r.Start:r.End] {
			ent, err := db.UpsertEntity(ctx, &store.Entity{
				ProjectID:     projectID,
				Type:          store.EntityModule,
				Name:          imp.ImportPath,
				QualifiedName: "module:" + imp.ImportPath,
				Metadata:      map[string]any{"external": imp.IsExternal},
			})
			if err != nil {
				return counts, fmt.Errorf("upsert import %s: %w", imp.ImportPath, err)
			}
			counts.Entities++

			fileStoreID, ok := ids[GenerateFileID(imp.FilePath)]
			if !ok {
				continue
			}
			if _, err := db.UpsertRelationship(ctx, &store.Relationship{
				ProjectID: projectID, SourceID: fileStoreID, TargetID: ent.ID, Relationship: store.RelImports,
			}); err != nil {
				return counts, fmt.Errorf("upsert imports edge %s: %w", imp.ImportPath, err)
			}
			counts.Relationships++
		}
	}

	for _, r := range batcher.Chunk(len(defines)) {
		for _, d := range defines[r.Start:r.End] {
			srcID, ok1 := ids[d.FileID]
			dstID, ok2 := ids[d.FunctionID]
			if !ok1 || !ok2 {
				continue
			}
			if _, err := db.UpsertRelationship(ctx, &store.Relationship{
				ProjectID: projectID, SourceID: srcID, TargetID: dstID, Relationship: store.RelDefines,
			}); err != nil {
				return counts, fmt.Errorf("upsert defines edge: %w", err)
			}
			counts.Relationships++
		}
	}

	for _, r := range batcher.Chunk(len(definesTypes)) {
		for _, d := range definesTypes[r.Start:r.End] {
			srcID, ok1 := ids[d.FileID]
			dstID, ok2 := ids[d.TypeID]
			if !ok1 || !ok2 {
				continue
			}
			if _, err := db.UpsertRelationship(ctx, &store.Relationship{
				ProjectID: projectID, SourceID: srcID, TargetID: dstID, Relationship: store.RelDefines,
			}); err != nil {
				return counts, fmt.Errorf("upsert defines type edge: %w", err)
			}
			counts.Relationships++
		}
	}

	for _, r := range batcher.Chunk(len(calls)) {
		for _, c := range calls[r.Start:r.End] {
			srcID, ok1 := ids[c.CallerID]
			dstID, ok2 := ids[c.CalleeID]
			if !ok1 || !ok2 || srcID == dstID {
				continue
			}
			if _, err := db.UpsertRelationship(ctx, &store.Relationship{
				ProjectID: projectID, SourceID: srcID, TargetID: dstID, Relationship: store.RelCalls,
			}); err != nil {
				return counts, fmt.Errorf("upsert calls edge: %w", err)
			}
			counts.Relationships++
		}
	}

	return counts, nil
}

// typeEntityKind maps a parser-reported type kind to the store's entity
// type, defaulting to a plain type alias for kinds it doesn't special-case.
func typeEntityKind(kind string) store.EntityType {
	switch kind {
	case "interface":
		return store.EntityInterface
	case "class":
		return store.EntityClass
	default:
		return store.EntityTypeAlias
	}
}
