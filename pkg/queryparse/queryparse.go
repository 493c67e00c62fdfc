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

// Package queryparse tokenizes and classifies a raw natural-language query
// into a ParsedQuery: intent, entity mentions, type hints, and
// synonym-expanded terms.
package queryparse

import (
	"regexp"
	"strings"

	"github.com/kraklabs/kge/pkg/patterns"
	"github.com/kraklabs/kge/pkg/store"
)

// Intent is the closed set of query intents.
type Intent string

const (
	IntentHow     Intent = "how"
	IntentWhy     Intent = "why"
	IntentExplain Intent = "explain"
	IntentWhat    Intent = "what"
	IntentWhere   Intent = "where"
	IntentFind    Intent = "find"
	IntentList    Intent = "list"
	IntentShow    Intent = "show"
	IntentDebug   Intent = "debug"
)

// ParsedQuery is the structured result of parsing one raw query.
type ParsedQuery struct {
	Raw               string
	Normalized        string
	Intent            Intent
	EntityMentions    []string
	EntityTypesHinted []store.EntityType
	ExpandedTerms     []string
}

var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentHow, []string{"how do", "how does", "how to", "how can", "how is"}},
	{IntentWhy, []string{"why do", "why does", "why is", "why was", "why did"}},
	{IntentExplain, []string{"explain"}},
	{IntentDebug, []string{"debug", "error", "fails", "failing", "broken", "crash", "bug"}},
	{IntentWhere, []string{"where"}},
	{IntentList, []string{"list all", "list the", "enumerate"}},
	{IntentShow, []string{"show me", "show the"}},
	{IntentFind, []string{"find"}},
	{IntentWhat, []string{"what"}},
}

var mentionPattern = regexp.MustCompile("`([^`]+)`|\\b([A-Za-z_][A-Za-z0-9_]*(?:\\.[A-Za-z_][A-Za-z0-9_]*)+)\\b|\\b([\\w-]+/[\\w./\\-]+)\\b")

var typeHintKeywords = map[store.EntityType][]string{
	store.EntityFunction:  {"function", "func"},
	store.EntityMethod:    {"method"},
	store.EntityClass:     {"class"},
	store.EntityInterface: {"interface"},
	store.EntityModule:    {"module", "package", "import"},
	store.EntityFile:      {"file"},
	store.EntityDocument:  {"document", "doc", "readme"},
}

// Parse classifies raw into a ParsedQuery. Entity mentions (backticked
// spans, dotted identifiers like Foo.bar, and path-like tokens like
// src/...) are extracted first and excluded from synonym expansion so a
// literal identifier is never rewritten.
func Parse(raw string) ParsedQuery {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	pq := ParsedQuery{Raw: raw, Normalized: normalized, Intent: classifyIntent(normalized)}

	mentionSet := map[string]bool{}
	for _, m := range mentionPattern.FindAllStringSubmatch(raw, -1) {
		for _, g := range m[1:] {
			if g != "" && !mentionSet[g] {
				mentionSet[g] = true
				pq.EntityMentions = append(pq.EntityMentions, g)
			}
		}
	}

	for typ, keywords := range typeHintKeywords {
		for _, kw := range keywords {
			if strings.Contains(normalized, kw) {
				pq.EntityTypesHinted = append(pq.EntityTypesHinted, typ)
				break
			}
		}
	}

	pq.ExpandedTerms = expandTerms(normalized, mentionSet)
	return pq
}

func classifyIntent(normalized string) Intent {
	for _, ik := range intentKeywords {
		for _, kw := range ik.keywords {
			if strings.Contains(normalized, kw) {
				return ik.intent
			}
		}
	}
	return IntentWhat
}

func expandTerms(normalized string, mentions map[string]bool) []string {
	words := strings.Fields(normalized)
	seen := map[string]bool{}
	var out []string
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:`()")
		if w == "" || mentions[w] {
			continue
		}
		for _, syn := range patterns.Expand(w) {
			if !seen[syn] {
				seen[syn] = true
				out = append(out, syn)
			}
		}
	}
	return out
}
