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

// Package memory manages conversation sessions: the active/archived/
// summarized lifecycle, summarization of long transcripts via an LLM
// provider, and decision extraction from a session's message history.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kraklabs/kge/pkg/llm"
	"github.com/kraklabs/kge/pkg/patterns"
	"github.com/kraklabs/kge/pkg/store"
)

const (
	defaultMaxActiveMessages  = 100
	defaultMaxTranscriptChars = 10000
)

// Manager wraps pkg/store's session/message/decision primitives with the
// summarization and decision-extraction behavior spec.md §4.12 describes.
type Manager struct {
	db       *store.DB
	provider llm.Provider
	model    string
	logger   *slog.Logger

	maxActiveMessages  int
	maxTranscriptChars int
}

// Config configures one Manager.
type Config struct {
	DB                 *store.DB
	Provider           llm.Provider // optional; summarization/decision extraction are no-ops without one
	Model              string
	MaxActiveMessages  int // default 100
	MaxTranscriptChars int // default 10000
	Logger             *slog.Logger
}

// New constructs a Manager.
func New(cfg Config) *Manager {
	maxActive := cfg.MaxActiveMessages
	if maxActive <= 0 {
		maxActive = defaultMaxActiveMessages
	}
	maxChars := cfg.MaxTranscriptChars
	if maxChars <= 0 {
		maxChars = defaultMaxTranscriptChars
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		db: cfg.DB, provider: cfg.Provider, model: cfg.Model, logger: logger,
		maxActiveMessages: maxActive, maxTranscriptChars: maxChars,
	}
}

// StartSession creates a new active session.
func (m *Manager) StartSession(ctx context.Context, projectID string) (*store.Session, error) {
	return m.db.CreateSession(ctx, projectID)
}

// AppendMessage records a message and, when the session has crossed the
// summarization threshold, triggers ShouldSummarize's caller-visible
// effect by returning the updated flag alongside the stored message.
func (m *Manager) AppendMessage(ctx context.Context, sessionID, role, content string) (*store.Message, bool, error) {
	msg, err := m.db.AppendMessage(ctx, sessionID, role, content)
	if err != nil {
		return nil, false, err
	}
	due, err := m.ShouldSummarize(ctx, sessionID)
	if err != nil {
		return msg, false, err
	}
	return msg, due, nil
}

// ShouldSummarize reports whether sessionID's message count exceeds
// maxActiveMessages.
func (m *Manager) ShouldSummarize(ctx context.Context, sessionID string) (bool, error) {
	messages, err := m.db.ListMessages(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return len(messages) > m.maxActiveMessages, nil
}

// Summary is the parsed result of a five-section summarization response.
type Summary struct {
	Overview       string
	Topics         []string
	Decisions      []string
	CodeReferences []string
	KeyPoints      []string
}

// Summarize prepares sessionID's transcript, asks the configured provider
// to summarize it, and parses the five-section response. The session is
// transitioned to "summarized" with the overview stored as its summary.
// Returns an error (not fail-open) per spec.md §7's "surfaced for
// summarization" policy, since a failed summarization would otherwise
// silently drop history.
func (m *Manager) Summarize(ctx context.Context, sessionID string) (Summary, error) {
	if m.provider == nil {
		return Summary{}, fmt.Errorf("memory: no LLM provider configured for summarization")
	}
	messages, err := m.db.ListMessages(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}

	transcript := prepareTranscript(messages, m.maxTranscriptChars)
	prompt := "Summarize the following conversation transcript. Respond with exactly these five labeled " +
		"sections, one per line group, using the literal word \"none\" for any list section with nothing to report:\n\n" +
		"OVERVIEW:\n<one paragraph>\n\nTOPICS:\n<comma or newline separated list>\n\nDECISIONS:\n<list>\n\n" +
		"CODE_REFERENCES:\n<list>\n\nKEY_POINTS:\n<list>\n\nTranscript:\n" + transcript

	resp, err := m.provider.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Model: m.model, MaxTokens: 800, Temperature: 0.2})
	if err != nil {
		return Summary{}, fmt.Errorf("memory: summarization failed: %w", err)
	}

	summary := parseSummary(resp.Text)
	if err := m.db.SetSessionState(ctx, sessionID, store.SessionSummarized, summary.Overview); err != nil {
		return summary, err
	}
	return summary, nil
}

// Archive transitions a session from active to archived without
// summarizing it.
func (m *Manager) Archive(ctx context.Context, sessionID string) error {
	return m.db.SetSessionState(ctx, sessionID, store.SessionArchived, "")
}

// prepareTranscript formats messages as "[ROLE]: content" lines,
// truncating to maxChars.
func prepareTranscript(messages []store.Message, maxChars int) string {
	var b strings.Builder
	for _, msg := range messages {
		fmt.Fprintf(&b, "[%s]: %s\n", strings.ToUpper(msg.Role), msg.Content)
	}
	text := b.String()
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}

var sectionHeaders = []string{"OVERVIEW", "TOPICS", "DECISIONS", "CODE_REFERENCES", "KEY_POINTS"}

// parseSummary splits a model response into its five labeled sections.
// A literal "none" body (case-insensitive) yields an empty list for list
// sections; OVERVIEW is kept as free text.
func parseSummary(text string) Summary {
	sections := splitSections(text)

	var s Summary
	s.Overview = strings.TrimSpace(sections["OVERVIEW"])
	s.Topics = parseListSection(sections["TOPICS"])
	s.Decisions = parseListSection(sections["DECISIONS"])
	s.CodeReferences = parseListSection(sections["CODE_REFERENCES"])
	s.KeyPoints = parseListSection(sections["KEY_POINTS"])
	return s
}

func splitSections(text string) map[string]string {
	sections := map[string]string{}
	lines := strings.Split(text, "\n")
	current := ""
	var body strings.Builder

	flush := func() {
		if current != "" {
			sections[current] = body.String()
		}
		body.Reset()
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		matchedHeader := ""
		for _, h := range sectionHeaders {
			if strings.HasPrefix(trimmed, h+":") {
				matchedHeader = h
				trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, h+":"))
				break
			}
		}
		if matchedHeader != "" {
			flush()
			current = matchedHeader
			if trimmed != "" {
				body.WriteString(trimmed)
				body.WriteString("\n")
			}
			continue
		}
		if current != "" {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()
	return sections
}

func parseListSection(body string) []string {
	body = strings.TrimSpace(body)
	if body == "" || strings.EqualFold(body, "none") {
		return nil
	}
	var items []string
	for _, line := range strings.Split(body, "\n") {
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "-"))
			part = strings.TrimSpace(part)
			if part == "" || strings.EqualFold(part, "none") {
				continue
			}
			items = append(items, part)
		}
	}
	return items
}

// ExtractedDecision is one decision identified in a session's transcript
// and elaborated by the provider.
type ExtractedDecision struct {
	Decision     string
	Context      string
	Alternatives []string
}

// ExtractDecisions scans sessionID's messages for curated decision-phrase
// matches and asks the provider to elaborate each into a
// DECISION/CONTEXT/ALTERNATIVES block. Messages with no phrase match are
// skipped without a provider call.
func (m *Manager) ExtractDecisions(ctx context.Context, sessionID string) ([]ExtractedDecision, error) {
	messages, err := m.db.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if m.provider == nil {
		return nil, nil
	}

	var out []ExtractedDecision
	for _, msg := range messages {
		if !patterns.IsDecisionPhrase(msg.Content) {
			continue
		}
		prompt := "The following message appears to record a decision. Respond with exactly:\n\n" +
			"DECISION:\n<one line>\n\nCONTEXT:\n<one or two sentences>\n\nALTERNATIVES:\n<comma separated list, or \"none\">\n\n" +
			"Message:\n" + msg.Content

		resp, err := m.provider.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Model: m.model, MaxTokens: 300, Temperature: 0.2})
		if err != nil {
			m.logger.Warn("memory.decision_extraction.fallback", "error", err, "session_id", sessionID)
			continue
		}

		sections := splitSections(strings.ReplaceAll(resp.Text, "DECISION:", "OVERVIEW:"))
		dec := ExtractedDecision{
			Decision:     strings.TrimSpace(sections["OVERVIEW"]),
			Context:      strings.TrimSpace(extractSection(resp.Text, "CONTEXT")),
			Alternatives: parseListSection(extractSection(resp.Text, "ALTERNATIVES")),
		}
		if dec.Decision == "" {
			continue
		}
		if _, err := m.db.RecordDecision(ctx, sessionID, dec.Decision); err != nil {
			return out, err
		}
		out = append(out, dec)
	}
	return out, nil
}

// extractSection pulls one labeled section's body out of free text without
// the OVERVIEW/TOPICS/... header constraint splitSections assumes.
func extractSection(text, header string) string {
	idx := strings.Index(text, header+":")
	if idx < 0 {
		return ""
	}
	rest := text[idx+len(header)+1:]
	if next := strings.IndexAny(rest, "\n"); next >= 0 {
		// consume lines until the next recognized header or end of text
		lines := strings.Split(rest, "\n")
		var b strings.Builder
		for _, line := range lines[1:] {
			trimmed := strings.TrimSpace(line)
			isHeader := false
			for _, h := range []string{"DECISION", "CONTEXT", "ALTERNATIVES"} {
				if strings.HasPrefix(trimmed, h+":") {
					isHeader = true
				}
			}
			if isHeader {
				break
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		first := strings.TrimSpace(lines[0])
		return strings.TrimSpace(first + "\n" + b.String())
	}
	return strings.TrimSpace(rest)
}
