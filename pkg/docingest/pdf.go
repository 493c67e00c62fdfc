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
	"fmt"
	"path/filepath"
)

// PDFMetadata is the document-level metadata a PDFTextProvider reports
// alongside page text.
type PDFMetadata struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
}

// PDFPage is one page's extracted text.
type PDFPage struct {
	Number int
	Text   string
}

// PDFTextProvider extracts page text and document metadata from raw PDF
// bytes. PDF text extraction is out of scope for this repo; production
// wiring would plug in a real extraction library behind this interface.
type PDFTextProvider interface {
	ExtractText(content []byte) ([]PDFPage, PDFMetadata, error)
}

// PDFPipeline produces one section entity per page, plus document
// metadata, via a caller-supplied PDFTextProvider.
type PDFPipeline struct {
	Provider PDFTextProvider
}

// Parse implements Pipeline.
func (p PDFPipeline) Parse(path string, content []byte) (*Document, error) {
	docID := "doc:" + path

	if p.Provider == nil {
		return nil, fmt.Errorf("docingest: no PDFTextProvider configured for %s", path)
	}
	pages, meta, err := p.Provider.ExtractText(content)
	if err != nil {
		return nil, fmt.Errorf("docingest: extract pdf text %s: %w", path, err)
	}

	title := meta.Title
	if title == "" {
		title = filepath.Base(path)
	}

	var sections []Section
	var relations []Relation
	for _, page := range pages {
		id := fmt.Sprintf("%s#page-%d", docID, page.Number)
		sections = append(sections, Section{
			ID: id, Title: fmt.Sprintf("Page %d", page.Number), Level: 1,
			Content: page.Text, Chunks: ChunkSection(id, page.Text, DefaultChunkConfig),
		})
		relations = append(relations, Relation{SourceID: docID, TargetID: id, Relationship: "CONTAINS"})
	}

	metaID := docID + "#metadata"
	relations = append(relations, Relation{SourceID: docID, TargetID: metaID, Relationship: "CONTAINS"})

	return &Document{
		ID: docID, Path: path, Title: title, Format: "pdf",
		Sections:  sections,
		Relations: relations,
		Children: []ChildEntity{{
			ID: metaID, Type: "component", Name: "metadata", ParentID: docID,
			Metadata: map[string]any{
				"author": meta.Author, "subject": meta.Subject,
				"creator": meta.Creator, "producer": meta.Producer,
			},
		}},
	}, nil
}
