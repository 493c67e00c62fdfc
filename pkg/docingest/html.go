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
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLPipeline extracts a section tree from <h1>..<h6> headings, with
// <script>/<style>/comment nodes stripped before text is collected.
type HTMLPipeline struct{}

var headingAtoms = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// Parse implements Pipeline.
func (HTMLPipeline) Parse(path string, content []byte) (*Document, error) {
	docID := "doc:" + path

	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("docingest: parse html %s: %w", path, err)
	}

	type node struct {
		level int
		id    string
		title string
		body  strings.Builder
	}
	var sections []*node
	var stack []*node
	seen := map[string]bool{}

	currentContentTarget := func() *node {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			}
			if level, ok := headingAtoms[n.DataAtom]; ok {
				title := strings.TrimSpace(collectText(n))
				id := uniqueSectionID(docID, title, seen)
				for len(stack) > 0 && stack[len(stack)-1].level >= level {
					stack = stack[:len(stack)-1]
				}
				sec := &node{level: level, id: id, title: title}
				sections = append(sections, sec)
				stack = append(stack, sec)
				return
			}
		}
		if n.Type == html.CommentNode {
			return
		}
		if n.Type == html.TextNode {
			if target := currentContentTarget(); target != nil {
				text := strings.TrimSpace(n.Data)
				if text != "" {
					target.body.WriteString(text)
					target.body.WriteString(" ")
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	docSections := make([]Section, len(sections))
	var relations []Relation
	idToParent := map[string]string{}
	// recompute parents using the same stack-walk levels recorded in order
	var parentStack []*node
	for _, sec := range sections {
		for len(parentStack) > 0 && parentStack[len(parentStack)-1].level >= sec.level {
			parentStack = parentStack[:len(parentStack)-1]
		}
		parent := ""
		if len(parentStack) > 0 {
			parent = parentStack[len(parentStack)-1].id
		}
		idToParent[sec.id] = parent
		parentStack = append(parentStack, sec)
	}

	for i, sec := range sections {
		docSections[i] = Section{
			ID: sec.id, ParentID: idToParent[sec.id], Title: sec.title, Level: sec.level,
			Content: strings.TrimSpace(sec.body.String()),
		}
		docSections[i].Chunks = ChunkSection(sec.id, docSections[i].Content, DefaultChunkConfig)
		target := docID
		if docSections[i].ParentID != "" {
			target = docSections[i].ParentID
		}
		relations = append(relations, Relation{SourceID: target, TargetID: sec.id, Relationship: "CONTAINS"})
	}

	title := filepath.Base(path)
	if len(docSections) > 0 {
		title = docSections[0].Title
	}

	return &Document{
		ID: docID, Path: path, Title: title, Format: "html",
		Sections: docSections, Relations: relations,
	}, nil
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
