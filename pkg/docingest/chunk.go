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
	"regexp"
	"strings"
)

// ChunkConfig bounds section chunking.
type ChunkConfig struct {
	TargetSize int
	MaxSize    int
	MinSize    int
	Overlap    int
}

// DefaultChunkConfig matches spec.md §4.3.1's defaults.
var DefaultChunkConfig = ChunkConfig{TargetSize: 1500, MaxSize: 3000, MinSize: 200, Overlap: 200}

var paragraphBoundary = regexp.MustCompile(`\n\n+`)

// ChunkSection splits content into Chunks per spec.md §4.3.1: sections
// longer than MaxSize are split on paragraph boundaries, each non-first
// chunk id-suffixed "-chunk-N" and prefixed with the previous chunk's
// trailing Overlap characters; chunks shorter than MinSize are merged
// into the previous chunk, but only when the previous chunk is itself a
// "-chunk-" (never merging across a section boundary).
func ChunkSection(sectionID, content string, cfg ChunkConfig) []Chunk {
	if len(content) <= cfg.MaxSize {
		return []Chunk{{ID: sectionID, Content: content}}
	}

	paragraphs := paragraphBoundary.Split(content, -1)
	var raw []string
	var current string
	for _, p := range paragraphs {
		candidate := current
		if candidate != "" {
			candidate += "\n\n"
		}
		candidate += p
		if len(candidate) > cfg.TargetSize && current != "" {
			raw = append(raw, current)
			current = p
			continue
		}
		current = candidate
	}
	if current != "" {
		raw = append(raw, current)
	}
	if len(raw) == 0 {
		return []Chunk{{ID: sectionID, Content: content}}
	}

	var chunks []Chunk
	for i, body := range raw {
		text := body
		if i > 0 {
			prev := raw[i-1]
			overlapStart := len(prev) - cfg.Overlap
			if overlapStart < 0 {
				overlapStart = 0
			}
			text = prev[overlapStart:] + text
		}
		id := sectionID
		if i > 0 {
			id = fmt.Sprintf("%s-chunk-%d", sectionID, i)
		}
		chunks = append(chunks, Chunk{ID: id, Content: text})
	}

	return mergeSmallChunks(chunks, cfg.MinSize)
}

// mergeSmallChunks merges any chunk shorter than minSize into the
// previous chunk, provided the previous chunk is itself a split chunk
// (carries the "-chunk-" id suffix) rather than the section's own id.
func mergeSmallChunks(chunks []Chunk, minSize int) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if len(out) > 0 && len(c.Content) < minSize && isChunkSuffixed(out[len(out)-1].ID) {
			out[len(out)-1].Content += "\n\n" + c.Content
			continue
		}
		out = append(out, c)
	}
	return out
}

func isChunkSuffixed(id string) bool {
	return strings.Contains(id, "-chunk-")
}
