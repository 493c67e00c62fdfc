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
)

// FileResult summarizes what IndexFile persisted for a single source file.
type FileResult struct {
	EntitiesCreated      int
	RelationshipsCreated int
	FunctionsExtracted   int
	TypesExtracted       int
}

// IndexFile parses and writes a single source file, the incremental
// counterpart to LocalPipeline.Run's whole-repository sweep. It embeds
// every extracted function and type before writing, resolving calls only
// within the file itself (cross-file call targets are left unresolved,
// as CallResolver requires the full-repository symbol index LocalPipeline
// builds).
func (p *LocalPipeline) IndexFile(ctx context.Context, relPath, fullPath string) (FileResult, error) {
	var result FileResult

	parsed, err := p.parser.ParseFile(FileInfo{
		Path:     relPath,
		FullPath: fullPath,
		Language: detectLanguageFromPath(relPath),
	})
	if err != nil {
		return result, fmt.Errorf("parse %s: %w", relPath, err)
	}

	if p.embeddingGen != nil {
		if _, err := p.embeddingGen.EmbedFunctions(ctx, parsed.Functions); err != nil {
			return result, fmt.Errorf("embed functions in %s: %w", relPath, err)
		}
		if _, err := p.embeddingGen.EmbedTypes(ctx, parsed.Types); err != nil {
			return result, fmt.Errorf("embed types in %s: %w", relPath, err)
		}
	}

	resolver := NewCallResolver()
	resolver.BuildIndex(
		[]FileEntity{parsed.File}, parsed.Functions, parsed.Imports,
		map[string]string{parsed.File.Path: parsed.PackageName},
	)
	resolvedCalls := append(append([]CallsEdge{}, parsed.Calls...), resolver.ResolveCalls(parsed.UnresolvedCalls)...)

	counts, err := writeEntities(
		ctx, p.db, p.config.ProjectID, p.batcher,
		[]FileEntity{parsed.File}, parsed.Functions, parsed.Types, parsed.Imports,
		definesEdgesFor(parsed.File.ID, parsed.Functions),
		definesTypeEdgesFor(parsed.File.ID, parsed.Types),
		resolvedCalls,
	)
	if err != nil {
		return result, err
	}

	result.EntitiesCreated = counts.Entities
	result.RelationshipsCreated = counts.Relationships
	result.FunctionsExtracted = len(parsed.Functions)
	result.TypesExtracted = len(parsed.Types)
	return result, nil
}
