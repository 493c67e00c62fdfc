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
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// XMLPipeline turns the first few levels of significant elements into
// section entities with xpath-like qualified names, special-casing Maven
// POM dependency elements into technology entities.
type XMLPipeline struct{}

const xmlMaxSectionDepth = 3

// Parse implements Pipeline.
func (XMLPipeline) Parse(path string, content []byte) (*Document, error) {
	docID := "doc:" + path

	dec := xml.NewDecoder(bytes.NewReader(content))
	var stack []string
	var sections []Section
	var children []ChildEntity
	var relations []Relation
	parentOf := map[string]string{}

	var currentDep map[string]string
	inDependency := false
	var textBuf strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docingest: parse xml %s: %w", path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			xpath := "/" + strings.Join(stack, "/")

			if t.Name.Local == "dependency" {
				inDependency = true
				currentDep = map[string]string{}
			}
			textBuf.Reset()

			if len(stack) <= xmlMaxSectionDepth {
				id := docID + "#" + xpath
				parent := docID
				if len(stack) > 1 {
					parentPath := "/" + strings.Join(stack[:len(stack)-1], "/")
					parent = docID + "#" + parentPath
				}
				parentOf[id] = parent
				sections = append(sections, Section{ID: id, ParentID: boolParent(parent, docID), Title: xpath, Level: len(stack)})
				if parent == docID {
					relations = append(relations, Relation{SourceID: docID, TargetID: id, Relationship: "CONTAINS"})
				} else {
					relations = append(relations, Relation{SourceID: parent, TargetID: id, Relationship: "CONTAINS"})
				}
			}

		case xml.CharData:
			textBuf.Write(t)

		case xml.EndElement:
			if inDependency && currentDep != nil {
				switch t.Name.Local {
				case "groupId", "artifactId", "version":
					currentDep[t.Name.Local] = strings.TrimSpace(textBuf.String())
				}
			}
			if t.Name.Local == "dependency" && inDependency {
				inDependency = false
				name := currentDep["artifactId"]
				if name != "" {
					qn := currentDep["groupId"] + ":" + currentDep["artifactId"] + ":" + currentDep["version"]
					id := docID + "#technology-" + qn
					children = append(children, ChildEntity{
						ID: id, Type: "technology", Name: name, QualifiedName: id,
						Content: qn, ParentID: docID,
						Metadata: map[string]any{"groupId": currentDep["groupId"], "version": currentDep["version"]},
					})
					relations = append(relations, Relation{SourceID: docID, TargetID: id, Relationship: "DEPENDS_ON"})
				}
				currentDep = nil
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			textBuf.Reset()
		}
	}

	return &Document{
		ID: docID, Path: path, Title: filepath.Base(path), Format: "xml",
		Sections: sections, Children: children, Relations: relations,
	}, nil
}

func boolParent(parent, docID string) string {
	if parent == docID {
		return ""
	}
	return parent
}
