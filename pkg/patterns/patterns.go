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

// Package patterns centralizes the regex and keyword sets shared by the
// document-code linker, the query parser, requirement extraction, and the
// draft critique loop, so each pattern is encoded and tested exactly once
// instead of duplicated at call sites.
package patterns

import (
	"regexp"
	"strings"
)

// Code reference patterns, tried in CodeReferences' resolution order.
var (
	Backtick     = regexp.MustCompile("`([^`]+)`")
	FilePath     = regexp.MustCompile(`\b[\w\-./]+\.(go|ts|tsx|js|jsx|py|rs|java|rb|md|yaml|yml|json|toml)\b`)
	PascalSuffix = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9]*(?:Service|Controller|Handler|Manager|Provider|Repository|Client|Store|Config|Factory|Builder))\b`)
	FuncCall     = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\(\)`)
	PlainPascal  = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9]*[A-Z][a-zA-Z0-9]*)\b`)
	ScreamCase   = regexp.MustCompile(`\b([A-Z][A-Z0-9_]{2,})\b`)
)

// CodeRef is one code-like token found in free text, with its source kind
// and whether it was found inside a fenced code block (lower linker weight).
type CodeRef struct {
	Text        string
	Kind        string // backtick, path, pascal_suffix, call, pascal, scream
	InCodeBlock bool
}

// CodeReferences scans text for code-like tokens using every pattern in
// resolution order, annotating matches found inside fenced code blocks.
func CodeReferences(text string) []CodeRef {
	var refs []CodeRef
	blocks := fencedBlockSpans(text)
	inBlock := func(idx int) bool {
		for _, b := range blocks {
			if idx >= b[0] && idx < b[1] {
				return true
			}
		}
		return false
	}

	add := func(re *regexp.Regexp, kind string) {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			refs = append(refs, CodeRef{
				Text:        text[m[2]:m[3]],
				Kind:        kind,
				InCodeBlock: inBlock(m[0]),
			})
		}
	}

	add(Backtick, "backtick")
	add(FilePath, "path")
	add(PascalSuffix, "pascal_suffix")
	add(FuncCall, "call")
	add(PlainPascal, "pascal")
	add(ScreamCase, "scream")
	return refs
}

func fencedBlockSpans(text string) [][2]int {
	var spans [][2]int
	lines := strings.Split(text, "\n")
	offset := 0
	start := -1
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if start < 0 {
				start = offset
			} else {
				spans = append(spans, [2]int{start, offset + len(line)})
				start = -1
			}
		}
		offset += len(line) + 1
	}
	return spans
}

// RequirementHeadings is the curated list of section titles (case
// insensitive, exact match after trimming) that trigger requirement
// extraction from their list items.
var RequirementHeadings = map[string]bool{
	"requirements":                true,
	"features":                    true,
	"user stories":                true,
	"functional requirements":     true,
	"non-functional requirements": true,
	"specifications":              true,
	"constraints":                 true,
	"goals":                       true,
	"objectives":                  true,
	"acceptance criteria":         true,
	"use cases":                   true,
}

// IsRequirementHeading reports whether title (after trimming and
// lower-casing) is in the curated requirement-heading list.
func IsRequirementHeading(title string) bool {
	return RequirementHeadings[strings.ToLower(strings.TrimSpace(title))]
}

// UserStory matches the "as a <role>, i want <want>, so that <benefit>" shape.
var UserStory = regexp.MustCompile(`(?i)as an?\s+(.+?),?\s+i want\s+(.+?),?\s+so that\s+(.+?)[.\n]`)

// AcceptanceMarker matches a line that begins a trailing acceptance-criteria
// sub-block: an explicit heading, or a Given/When/Then clause.
var AcceptanceMarker = regexp.MustCompile(`(?i)^\s*(acceptance criteria|given .+ when .+ then .+)`)

// PriorityKeywords maps a MoSCoW priority to the keywords that imply it,
// checked in this order (must beats should beats could beats wont).
var PriorityKeywords = []struct {
	Priority string
	Keywords []string
}{
	{"must", []string{"must", "required", "mandatory", "shall"}},
	{"should", []string{"should", "recommended", "important"}},
	{"could", []string{"could", "optional", "nice to have", "may"}},
	{"wont", []string{"won't", "wont", "out of scope", "will not"}},
}

// DetectPriority returns the first matching MoSCoW priority for text,
// defaulting to "should" when nothing matches.
func DetectPriority(text string) string {
	lower := strings.ToLower(text)
	for _, p := range PriorityKeywords {
		for _, kw := range p.Keywords {
			if strings.Contains(lower, kw) {
				return p.Priority
			}
		}
	}
	return "should"
}

// ReqTypeKeywords maps a requirement type to content cues.
var ReqTypeKeywords = []struct {
	Type     string
	Keywords []string
}{
	{"user-story", []string{"as a ", "as an "}},
	{"constraint", []string{"must not", "never", "limit", "constraint"}},
	{"feature", []string{"feature:", "support for", "ability to"}},
}

// DetectRequirementType returns the inferred requirement type for text,
// defaulting to "requirement".
func DetectRequirementType(text string) string {
	lower := strings.ToLower(text)
	for _, t := range ReqTypeKeywords {
		for _, kw := range t.Keywords {
			if strings.Contains(lower, kw) {
				return t.Type
			}
		}
	}
	return "requirement"
}

// DecisionPhrases are phrases that flag a message as recording a decision
// worth extracting during conversation summarization.
var DecisionPhrases = []string{
	"we decided", "we'll go with", "let's use", "decision:",
	"going with", "i'll use", "we should use", "chosen approach",
	"final decision", "agreed to",
}

// IsDecisionPhrase reports whether text contains a curated decision phrase.
func IsDecisionPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range DecisionPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// UncertaintyPhrases are phrases the critique loop treats as signaling an
// incomplete draft when the supplied context was non-empty.
var UncertaintyPhrases = []string{
	"i don't know", "i am not sure", "i'm not sure", "unclear", "cannot determine",
}

// AbsoluteClaim matches absolute or percentage claims the critique loop
// requires a supporting source for.
var AbsoluteClaim = regexp.MustCompile(`(?i)\b(always|never|100%|all|none|every)\b`)

// SynonymGroups are small closed-vocabulary synonym sets used by the query
// parser's term expansion.
var SynonymGroups = [][]string{
	{"function", "method"},
	{"class", "type"},
	{"config", "configuration"},
	{"bug", "issue", "defect"},
	{"fix", "resolve", "repair"},
}

// Expand returns the other members of term's synonym group, or nil if term
// is not in any group.
func Expand(term string) []string {
	lower := strings.ToLower(term)
	for _, group := range SynonymGroups {
		for _, member := range group {
			if member == lower {
				var out []string
				for _, other := range group {
					if other != lower {
						out = append(out, other)
					}
				}
				return out
			}
		}
	}
	return nil
}
