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

	"gopkg.in/yaml.v3"
)

// MarkdownPipeline parses front matter, a heading tree (levels 1-6), fenced
// code blocks, links, and curated-heading requirement blocks out of a
// markdown document. No CommonMark AST library in the retrieved pack tracks
// raw line numbers the way chunk provenance needs, so sections are found
// with a line scanner instead (kept in one file, matching the rest of this
// package's pattern-centralization approach).
type MarkdownPipeline struct{}

var (
	headingPattern  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	fenceOpenRegexp = regexp.MustCompile("^```\\s*([a-zA-Z0-9_+-]*)\\s*$")
	mdLinkPattern   = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	listItemPattern = regexp.MustCompile(`^\s*(?:[-*]|\d+\.)\s+(.*)$`)
)

// Parse implements Pipeline.
func (MarkdownPipeline) Parse(path string, content []byte) (*Document, error) {
	docID := "doc:" + path
	text := string(content)

	frontMatter, body := splitFrontMatter(text)

	doc := &Document{ID: docID, Path: path, Format: "markdown"}
	if title, ok := frontMatter["title"].(string); ok && title != "" {
		doc.Title = title
	}

	sections, codeBlocks, links := scanMarkdownSections(docID, body)
	doc.Sections = sections
	doc.Links = links

	if doc.Title == "" {
		for _, s := range sections {
			if s.Level == 1 {
				doc.Title = s.Title
				break
			}
		}
	}
	if doc.Title == "" {
		doc.Title = path
	}

	for i := range doc.Sections {
		sec := &doc.Sections[i]
		sec.CodeBlocks = codeBlocks[sec.ID]
		sec.Chunks = ChunkSection(sec.ID, sec.Content, DefaultChunkConfig)
		if sec.ParentID == "" {
			doc.Relations = append(doc.Relations, Relation{SourceID: docID, TargetID: sec.ID, Relationship: "CONTAINS"})
		} else {
			doc.Relations = append(doc.Relations, Relation{SourceID: sec.ParentID, TargetID: sec.ID, Relationship: "CONTAINS"})
		}
	}

	reqs, reqRelations := extractRequirements(docID, doc.Sections)
	doc.Children = append(doc.Children, reqs...)
	doc.Relations = append(doc.Relations, reqRelations...)

	return doc, nil
}

// splitFrontMatter strips a leading "---\n...\n---\n" YAML block and
// returns it parsed, alongside the remaining body text.
func splitFrontMatter(text string) (map[string]any, string) {
	if !strings.HasPrefix(text, "---\n") && !strings.HasPrefix(text, "---\r\n") {
		return nil, text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == "---" {
			raw := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			var fm map[string]any
			if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
				return nil, text
			}
			return fm, body
		}
	}
	return nil, text
}

type headingEntry struct {
	level int
	id    string
}

// scanMarkdownSections walks body line by line, building the heading tree,
// per-section content, fenced code blocks (keyed by enclosing section id),
// and document links. Lines inside a fenced code block are never treated
// as headings.
func scanMarkdownSections(docID, body string) ([]Section, map[string][]CodeBlock, []Link) {
	lines := strings.Split(body, "\n")

	var sections []Section
	var stack []headingEntry
	codeBlocks := map[string][]CodeBlock{}
	var links []Link

	currentID := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1].id
	}
	sectionIndex := map[string]int{}
	appendContent := func(id, line string) {
		if id == "" {
			return
		}
		idx, ok := sectionIndex[id]
		if !ok {
			return
		}
		if sections[idx].Content != "" {
			sections[idx].Content += "\n"
		}
		sections[idx].Content += line
	}

	inFence := false
	fenceLang := ""
	var fenceLines []string
	seen := map[string]bool{}

	for _, line := range lines {
		if m := fenceOpenRegexp.FindStringSubmatch(line); m != nil {
			if !inFence {
				inFence = true
				fenceLang = m[1]
				fenceLines = nil
				continue
			}
			inFence = false
			cb := CodeBlock{Language: fenceLang, Content: strings.Join(fenceLines, "\n")}
			sid := currentID()
			codeBlocks[sid] = append(codeBlocks[sid], cb)
			continue
		}
		if inFence {
			fenceLines = append(fenceLines, line)
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			level := len(m[1])
			title := strings.TrimSpace(m[2])
			id := uniqueSectionID(docID, title, seen)
			for len(stack) > 0 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			parentID := currentID()
			sections = append(sections, Section{ID: id, ParentID: parentID, Title: title, Level: level})
			sectionIndex[id] = len(sections) - 1
			stack = append(stack, headingEntry{level: level, id: id})
			continue
		}

		for _, m := range mdLinkPattern.FindAllStringSubmatch(line, -1) {
			url := m[2]
			links = append(links, Link{Text: m[1], URL: url, Internal: !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://")})
		}

		appendContent(currentID(), line)
	}

	for i := range sections {
		sections[i].Content = strings.TrimSpace(sections[i].Content)
	}

	return sections, codeBlocks, links
}

func uniqueSectionID(docID, title string, seen map[string]bool) string {
	base := docID + "#" + slugify(title)
	id := base
	n := 2
	for seen[id] {
		id = fmt.Sprintf("%s-%d", base, n)
		n++
	}
	seen[id] = true
	return id
}

var slugNonWord = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugNonWord.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
