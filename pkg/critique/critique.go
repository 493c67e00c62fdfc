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

// Package critique validates a generated draft answer against the context
// it was supposed to be grounded in, using always-on pattern checks, an
// optional LLM-based review, and claim-level support checking, iterating
// with a caller-supplied revision callback until the draft passes or a
// bound is hit.
package critique

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kraklabs/kge/pkg/llm"
	"github.com/kraklabs/kge/pkg/patterns"
)

const minDraftLen = 10

// IssueType is the closed set of critique issue categories.
type IssueType string

const (
	IssueHallucination IssueType = "hallucination"
	IssueIncomplete    IssueType = "incomplete"
	IssueUnsupported   IssueType = "unsupported"
)

// Severity is the closed set of issue severities, ordered low < medium < high.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// Issue is one problem found with a draft.
type Issue struct {
	Type        IssueType
	Description string
	Severity    Severity
}

// ClaimKind classifies one extracted clause.
type ClaimKind string

const (
	ClaimFact    ClaimKind = "fact"
	ClaimCode    ClaimKind = "code"
	ClaimOpinion ClaimKind = "opinion"
)

// Claim is one clause extracted from the draft, with its support status.
type Claim struct {
	Text      string
	Kind      ClaimKind
	Supported bool
	SourceID  string // first matching source, if Supported
}

// Result is the outcome of one critique pass.
type Result struct {
	Passed      bool
	Issues      []Issue
	Suggestions []string
	MissingInfo []string
	Claims      []Claim
	Iterations  int
}

// Source is one piece of retrieved context a draft can cite, paired with
// an id so supported claims can be linked back to it.
type Source struct {
	ID   string
	Text string
}

// Options configures one Run call.
type Options struct {
	MaxIterations     int // default 2
	FailureThreshold  Severity // default medium
	TrackClaims       bool
	ModelCritique     llm.Provider // optional; nil disables model critique
	Model             string
	SuggestionsOnFail bool
}

// RevisionCallback produces a revised draft given the previous draft and
// the critique result that failed it.
type RevisionCallback func(ctx context.Context, draft string, result Result) (string, error)

// Run critiques draft against query and sources, invoking revise (if
// non-nil) and re-critiquing until the run passes or MaxIterations is
// exhausted.
func Run(ctx context.Context, draft, query string, sources []Source, opts Options, revise RevisionCallback, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 2
	}
	if opts.FailureThreshold == "" {
		opts.FailureThreshold = SeverityMedium
	}

	contextText := joinSources(sources)
	result := critiqueOnce(ctx, draft, query, contextText, sources, opts, logger)
	result.Iterations = 0

	for !result.Passed && result.Iterations < opts.MaxIterations && revise != nil {
		revised, err := revise(ctx, draft, result)
		if err != nil {
			return result, err
		}
		draft = revised
		next := critiqueOnce(ctx, draft, query, contextText, sources, opts, logger)
		next.Iterations = result.Iterations + 1
		result = next
		if ctx.Err() != nil {
			break
		}
	}
	return result, nil
}

func critiqueOnce(ctx context.Context, draft, query, contextText string, sources []Source, opts Options, logger *slog.Logger) Result {
	var issues []Issue
	issues = append(issues, patternCritique(draft, contextText)...)

	var suggestions, missingInfo []string
	if opts.ModelCritique != nil {
		modelIssues, sugg, missing := modelCritique(ctx, opts.ModelCritique, opts.Model, draft, query, contextText, logger)
		issues = append(issues, modelIssues...)
		suggestions = sugg
		missingInfo = missing
	}

	var claims []Claim
	if opts.TrackClaims {
		claims = extractClaims(draft, contextText, sources)
	}

	passed := true
	for _, iss := range issues {
		if iss.Severity.rank() >= opts.FailureThreshold.rank() {
			passed = false
			break
		}
	}

	return Result{Passed: passed, Issues: issues, Suggestions: suggestions, MissingInfo: missingInfo, Claims: claims}
}

// patternCritique runs the always-on regex/keyword checks from spec.md
// §4.11: emptiness, hedging language, unsupported backtick/path
// references, and unsupported absolute claims.
func patternCritique(draft, contextText string) []Issue {
	var issues []Issue

	trimmed := strings.TrimSpace(draft)
	if len(trimmed) == 0 || len(trimmed) < minDraftLen {
		issues = append(issues, Issue{Type: IssueIncomplete, Description: "draft is empty or too short", Severity: SeverityHigh})
		return issues
	}

	lowerDraft := strings.ToLower(draft)
	if contextText != "" {
		for _, phrase := range patterns.UncertaintyPhrases {
			if strings.Contains(lowerDraft, phrase) {
				issues = append(issues, Issue{Type: IssueIncomplete, Description: "draft expresses uncertainty: " + phrase, Severity: SeverityMedium})
				break
			}
		}
	}

	for _, ref := range patterns.CodeReferences(draft) {
		if ref.Kind != "backtick" && ref.Kind != "path" {
			continue
		}
		if !strings.Contains(contextText, ref.Text) {
			issues = append(issues, Issue{
				Type:        IssueUnsupported,
				Description: "reference `" + ref.Text + "` does not appear in the retrieved context",
				Severity:    SeverityMedium,
			})
		}
	}

	if patterns.AbsoluteClaim.MatchString(draft) && !hasSupportingSource(draft, contextText) {
		issues = append(issues, Issue{Type: IssueUnsupported, Description: "absolute or percentage claim without a supporting source", Severity: SeverityMedium})
	}

	return issues
}

// hasSupportingSource is a coarse check: an absolute claim is considered
// supported if any sentence around it shares vocabulary with the context.
func hasSupportingSource(draft, contextText string) bool {
	if contextText == "" {
		return false
	}
	contextWords := wordSet(contextText)
	for _, sentence := range splitClauses(draft) {
		if patterns.AbsoluteClaim.MatchString(sentence) && overlapRatio(sentence, contextWords) > 0.3 {
			return true
		}
	}
	return false
}

type modelCritiqueResponse struct {
	Passed      bool     `json:"passed"`
	Issues      []Issue  `json:"issues"`
	Suggestions []string `json:"suggestions"`
	MissingInfo []string `json:"missingInfo"`
}

// modelCritique prompts an external model with the draft, query, and
// concatenated sources, parsing its JSON verdict. Malformed JSON or a
// provider error fails open (no issues added).
func modelCritique(ctx context.Context, provider llm.Provider, model, draft, query, contextText string, logger *slog.Logger) ([]Issue, []string, []string) {
	prompt := "Review the following draft answer for hallucination, incompleteness, or unsupported claims.\n\n" +
		"Query: " + query + "\n\nContext:\n" + contextText + "\n\nDraft:\n" + draft + "\n\n" +
		`Respond with JSON only: {"passed": bool, "issues": [{"type": "hallucination|incomplete|unsupported", "description": string, "severity": "low|medium|high"}], "suggestions": [string], "missingInfo": [string]}`

	resp, err := provider.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Model: model, MaxTokens: 512, Temperature: 0})
	if err != nil {
		logger.Warn("critique.model.fallback", "error", err)
		return nil, nil, nil
	}

	var parsed modelCritiqueResponse
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &parsed); err != nil {
		logger.Warn("critique.model.malformed_json", "error", err)
		return nil, nil, nil
	}
	if parsed.Passed {
		return nil, parsed.Suggestions, parsed.MissingInfo
	}
	return parsed.Issues, parsed.Suggestions, parsed.MissingInfo
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func extractJSON(text string) string {
	if m := jsonObjectPattern.FindString(text); m != "" {
		return m
	}
	return text
}

// extractClaims splits draft into clauses, classifies each, and checks
// fact/code claims for token-overlap support against the context.
func extractClaims(draft, contextText string, sources []Source) []Claim {
	clauses := splitClauses(draft)
	contextWords := wordSet(contextText)

	var claims []Claim
	for _, c := range clauses {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		kind := classifyClaim(c)
		claim := Claim{Text: c, Kind: kind}
		if kind == ClaimOpinion {
			claim.Supported = true
		} else {
			claim.Supported = overlapRatio(c, contextWords) > 0.4
			if claim.Supported {
				claim.SourceID = firstMatchingSource(c, sources)
			}
		}
		claims = append(claims, claim)
	}
	return claims
}

var opinionMarkers = []string{"i think", "i believe", "in my opinion", "probably", "might", "could be", "seems to"}

func classifyClaim(clause string) ClaimKind {
	lower := strings.ToLower(clause)
	for _, m := range opinionMarkers {
		if strings.Contains(lower, m) {
			return ClaimOpinion
		}
	}
	if len(patterns.CodeReferences(clause)) > 0 {
		return ClaimCode
	}
	return ClaimFact
}

func firstMatchingSource(clause string, sources []Source) string {
	for _, s := range sources {
		if overlapRatio(clause, wordSet(s.Text)) > 0.4 {
			return s.ID
		}
	}
	return ""
}

var clauseSplitter = regexp.MustCompile(`[.!?;\n]+`)

func splitClauses(text string) []string {
	return clauseSplitter.Split(text, -1)
}

func wordSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:'\"`()[]{}")
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}

func overlapRatio(text string, reference map[string]bool) float64 {
	words := wordSet(text)
	if len(words) == 0 {
		return 0
	}
	hit := 0
	for w := range words {
		if reference[w] {
			hit++
		}
	}
	return float64(hit) / float64(len(words))
}

func joinSources(sources []Source) string {
	var b strings.Builder
	for _, s := range sources {
		b.WriteString(s.Text)
		b.WriteString("\n")
	}
	return b.String()
}
