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

// Package context assembles a ranked set of search results into a single,
// token-budgeted block of text suitable for pasting into an LLM prompt.
package context

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kraklabs/kge/pkg/search"
	"github.com/kraklabs/kge/pkg/store"
)

// Format selects the output formatter.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatXML      Format = "xml"
	FormatPlain    Format = "plain"
)

const codeTruncateLen = 500

// Unlimited, passed as Options.MaxTokens, disables the token budget check
// entirely. The zero value means a zero-size budget, not "no limit": a
// caller that wants every result included must opt in explicitly.
const Unlimited = -1

// Options configures one Assemble call.
type Options struct {
	// MaxTokens is the token budget for the assembled block. Zero means
	// a zero-size budget (Assemble returns an empty, truncated result);
	// use Unlimited to disable the budget check.
	MaxTokens          int
	Format             Format
	IncludeSources     bool
	IncludeCodeContent bool
	GroupByType        bool
}

// Source is one entry in AssembledContext.Sources, preserving result order.
type Source struct {
	EntityID  string
	Name      string
	Type      store.EntityType
	File      string
	Line      int
	Relevance float64
}

// AssembledContext is the final, formatted, budget-checked context block.
type AssembledContext struct {
	Context   string
	Sources   []Source
	TokenCount int
	Truncated bool
}

// EstimateTokens applies the spec's token estimator: ceil(chars/4).
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// group is one of the four category buckets results are organized into
// when GroupByType is set.
type group int

const (
	groupCode group = iota
	groupDocs
	groupConversation
	groupOther
)

func categorize(t store.EntityType) group {
	switch t {
	case store.EntityFile, store.EntityModule, store.EntityClass, store.EntityInterface,
		store.EntityTypeAlias, store.EntityFunction, store.EntityMethod, store.EntityVariable:
		return groupCode
	case store.EntityDocument, store.EntitySection, store.EntityRequirement:
		return groupDocs
	case store.EntitySession, store.EntityMessage, store.EntityDecision:
		return groupConversation
	default:
		return groupOther
	}
}

var groupHeaders = map[Format]map[group]string{
	FormatMarkdown: {
		groupCode:         "## Relevant Code",
		groupDocs:         "## Related Documentation",
		groupConversation: "## Previous Conversations",
		groupOther:        "## Other Context",
	},
	FormatXML: {
		groupCode:         "<code>",
		groupDocs:         "<documentation>",
		groupConversation: "<conversation>",
		groupOther:        "<other>",
	},
	FormatPlain: {
		groupCode:         "RELEVANT CODE",
		groupDocs:         "RELATED DOCUMENTATION",
		groupConversation: "PREVIOUS CONVERSATIONS",
		groupOther:        "OTHER CONTEXT",
	},
}

// Assemble walks results in fused-score order (the order they're given in,
// which callers produce via search.Run), formatting each entity and
// stopping once adding the next one would exceed opts.MaxTokens.
func Assemble(results []search.FusedResult, opts Options) AssembledContext {
	if opts.Format == "" {
		opts.Format = FormatMarkdown
	}

	if opts.MaxTokens == 0 {
		return AssembledContext{Sources: []Source{}, Truncated: true}
	}

	var b strings.Builder
	var sources []Source
	lastGroup := group(-1)
	truncated := false

	for _, r := range results {
		g := groupCode
		if opts.GroupByType {
			g = categorize(r.Entity.Type)
		}

		var entry strings.Builder
		if opts.GroupByType && g != lastGroup {
			entry.WriteString(groupHeaders[opts.Format][g])
			entry.WriteString("\n")
			lastGroup = g
		}
		entry.WriteString(formatEntity(r.Entity, opts))

		candidate := b.String() + entry.String()
		if opts.MaxTokens != Unlimited && EstimateTokens(candidate) > opts.MaxTokens {
			truncated = true
			break
		}
		b.WriteString(entry.String())

		sources = append(sources, Source{
			EntityID:  r.Entity.ID,
			Name:      r.Entity.Name,
			Type:      r.Entity.Type,
			File:      r.Entity.FilePath,
			Line:      r.Entity.StartLine,
			Relevance: r.FusedScore,
		})
	}

	if opts.IncludeSources && len(sources) > 0 {
		n := len(sources)
		if n > 10 {
			n = 10
		}
		b.WriteString(formatSources(sources[:n], opts.Format))
	}

	text := b.String()
	count := EstimateTokens(text)
	if opts.MaxTokens != Unlimited && count > opts.MaxTokens {
		truncated = true
	}

	return AssembledContext{Context: text, Sources: sources, TokenCount: count, Truncated: truncated}
}

func formatEntity(e store.Entity, opts Options) string {
	content := e.Content
	if opts.IncludeCodeContent && len(content) > codeTruncateLen {
		content = content[:codeTruncateLen] + "\n// ... (truncated)"
	} else if !opts.IncludeCodeContent {
		content = ""
	}

	switch opts.Format {
	case FormatXML:
		var b strings.Builder
		fmt.Fprintf(&b, "<entity id=%q type=%q name=%q file=%q>\n", xmlEscape(e.ID), xmlEscape(string(e.Type)), xmlEscape(e.Name), xmlEscape(e.FilePath))
		if e.Summary != "" {
			fmt.Fprintf(&b, "  <summary>%s</summary>\n", xmlEscape(e.Summary))
		}
		if content != "" {
			fmt.Fprintf(&b, "  <content>%s</content>\n", xmlEscape(content))
		}
		b.WriteString("</entity>\n")
		return b.String()
	case FormatPlain:
		var b strings.Builder
		fmt.Fprintf(&b, "%s (%s) %s\n", e.Name, e.Type, e.FilePath)
		if e.Summary != "" {
			fmt.Fprintf(&b, "%s\n", e.Summary)
		}
		if content != "" {
			fmt.Fprintf(&b, "%s\n", content)
		}
		return b.String()
	default: // markdown
		var b strings.Builder
		fmt.Fprintf(&b, "### %s (`%s`)\n", e.Name, e.Type)
		if e.FilePath != "" {
			fmt.Fprintf(&b, "_%s_\n", e.FilePath)
		}
		if e.Summary != "" {
			fmt.Fprintf(&b, "%s\n", e.Summary)
		}
		if content != "" {
			fmt.Fprintf(&b, "```%s\n%s\n```\n", codeLangFromExt(e.FilePath), content)
		}
		return b.String()
	}
}

func formatSources(sources []Source, f Format) string {
	var b strings.Builder
	switch f {
	case FormatXML:
		b.WriteString("<sources>\n")
		for _, s := range sources {
			fmt.Fprintf(&b, "  <source id=%q name=%q file=%q line=\"%d\" relevance=\"%.4f\"/>\n",
				xmlEscape(s.EntityID), xmlEscape(s.Name), xmlEscape(s.File), s.Line, s.Relevance)
		}
		b.WriteString("</sources>\n")
	case FormatPlain:
		b.WriteString("SOURCES\n")
		for _, s := range sources {
			fmt.Fprintf(&b, "- %s (%s:%d) relevance=%.4f\n", s.Name, s.File, s.Line, s.Relevance)
		}
	default:
		b.WriteString("## Sources\n")
		for _, s := range sources {
			fmt.Fprintf(&b, "- `%s` (%s:%d) — relevance %.4f\n", s.Name, s.File, s.Line, s.Relevance)
		}
	}
	return b.String()
}

func xmlEscape(s string) string {
	r := strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

var extLang = map[string]string{
	".go": "go", ".ts": "typescript", ".tsx": "tsx", ".js": "javascript",
	".jsx": "jsx", ".py": "python", ".rs": "rust", ".java": "java",
	".rb": "ruby", ".md": "markdown", ".yaml": "yaml", ".yml": "yaml",
	".json": "json", ".toml": "toml",
}

func codeLangFromExt(path string) string {
	return extLang[filepath.Ext(path)]
}
