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
	"strings"

	"github.com/kraklabs/kge/pkg/patterns"
)

// extractRequirements scans sections for the curated requirement headings
// and for the user-story pattern everywhere, producing requirement child
// entities plus the CONTAINS edges from their parent section.
func extractRequirements(docID string, sections []Section) ([]ChildEntity, []Relation) {
	var children []ChildEntity
	var relations []Relation
	seenDescriptions := map[string]bool{}
	n := 0

	addRequirement := func(sectionID, description string) {
		description = strings.TrimSpace(description)
		if description == "" || seenDescriptions[description] {
			return
		}
		seenDescriptions[description] = true
		n++
		id := fmt.Sprintf("%s#requirement-%d", docID, n)
		req := ChildEntity{
			ID:          id,
			Type:        "requirement",
			Name:        truncateDescription(description),
			Content:     description,
			ParentID:    sectionID,
			Metadata: map[string]any{
				"priority": patterns.DetectPriority(description),
				"req_type": patterns.DetectRequirementType(description),
			},
		}
		if acc := collectAcceptance(description); len(acc) > 0 {
			req.Metadata["acceptance"] = acc
		}
		children = append(children, req)
		relations = append(relations, Relation{SourceID: sectionID, TargetID: id, Relationship: "CONTAINS"})
	}

	for _, sec := range sections {
		if patterns.IsRequirementHeading(sec.Title) {
			for _, item := range listItems(sec.Content) {
				addRequirement(sec.ID, item)
			}
		}
		for _, m := range patterns.UserStory.FindAllString(sec.Content, -1) {
			addRequirement(sec.ID, m)
		}
	}

	return children, relations
}

// listItems extracts "-", "*", and "N." list item bodies from content,
// one entry per line that matches.
func listItems(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		if m := listItemPattern.FindStringSubmatch(line); m != nil {
			items = append(items, m[1])
		}
	}
	return items
}

// collectAcceptance gathers the trailing acceptance-criteria sub-block
// that begins with an explicit heading or a Given/When/Then clause.
func collectAcceptance(description string) []string {
	var out []string
	lines := strings.Split(description, "\n")
	inBlock := false
	for _, line := range lines {
		if patterns.AcceptanceMarker.MatchString(line) {
			inBlock = true
		}
		if inBlock {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func truncateDescription(s string) string {
	const maxLen = 80
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
