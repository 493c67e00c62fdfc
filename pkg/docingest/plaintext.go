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

import "path/filepath"

// PlainTextPipeline treats the whole file as a single document entity,
// chunked directly with no section tree.
type PlainTextPipeline struct{}

// Parse implements Pipeline.
func (PlainTextPipeline) Parse(path string, content []byte) (*Document, error) {
	docID := "doc:" + path
	text := string(content)

	sec := Section{ID: docID + "#body", Content: text}
	sec.Chunks = ChunkSection(sec.ID, text, DefaultChunkConfig)

	return &Document{
		ID: docID, Path: path, Title: filepath.Base(path), Format: "text",
		Sections:  []Section{sec},
		Relations: []Relation{{SourceID: docID, TargetID: sec.ID, Relationship: "CONTAINS"}},
	}, nil
}
