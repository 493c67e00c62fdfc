// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package sigparse extracts parameter names and base types from a Go
// function signature string, without running the Go parser over the whole
// file. It is intentionally tolerant: signatures come from tree-sitter
// node text, not from a type-checked AST, so the goal is "good enough to
// resolve a call target or document a parameter", not full type fidelity.
package sigparse

import "strings"

// ParamInfo is a parsed parameter name paired with its normalized base type.
type ParamInfo struct {
	Name string
	Type string
}

// ExtractParamString returns the substring between the parameter-list
// parens, skipping a leading method receiver group when present. A
// receiver group is distinguished from a multi-value return group by
// position: it is the paren immediately following the "func" keyword,
// before any identifier.
func ExtractParamString(signature string) string {
	groups := topLevelParenGroups(signature)
	if len(groups) == 0 {
		return ""
	}
	if hasReceiver(signature) && len(groups) >= 2 {
		return strings.TrimSpace(groups[1])
	}
	return strings.TrimSpace(groups[0])
}

// hasReceiver reports whether signature's first top-level paren is a
// method receiver, i.e. it follows "func" with only whitespace between.
func hasReceiver(signature string) bool {
	idx := strings.Index(signature, "func")
	if idx < 0 {
		return false
	}
	rest := strings.TrimLeft(signature[idx+len("func"):], " \t")
	return strings.HasPrefix(rest, "(")
}

// topLevelParenGroups returns the contents of each top-level "(...)" group
// in order, skipping groups nested inside an outer one.
func topLevelParenGroups(s string) []string {
	var groups []string
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 && start >= 0 {
				groups = append(groups, s[start:i])
				start = -1
			}
		}
	}
	return groups
}

// ParseGoParams parses a Go function or method signature and returns its
// parameters (receiver excluded). Grouped declarations ("a, b int") expand
// to one ParamInfo per name sharing the trailing type.
func ParseGoParams(signature string) []ParamInfo {
	paramStr := ExtractParamString(signature)
	if paramStr == "" {
		return nil
	}

	fields := splitTopLevelCommas(paramStr)
	var params []ParamInfo
	var pendingNames []string

	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		name, typ, ok := splitNameAndType(field)
		if !ok {
			// A bare type with no name (rare in our extraction path); skip.
			continue
		}

		if typ == "" {
			// Grouped declaration: "a, b int" — this field is just a name,
			// the type arrives on a later field.
			pendingNames = append(pendingNames, name)
			continue
		}

		normalized := NormalizeType(typ)
		for _, pending := range pendingNames {
			params = append(params, ParamInfo{Name: pending, Type: normalized})
		}
		pendingNames = nil
		params = append(params, ParamInfo{Name: name, Type: normalized})
	}

	return params
}

// splitTopLevelCommas splits on commas that are not nested inside parens,
// brackets, or braces (so "fn(a, b)" in a parameter type is not split).
func splitTopLevelCommas(s string) []string {
	var fields []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				fields = append(fields, s[last:i])
				last = i + 1
			}
		}
	}
	fields = append(fields, s[last:])
	return fields
}

// splitNameAndType splits a single parameter field into its name and type.
// Returns ok=false only for fields sigparse cannot make sense of at all.
// A field with no discernible type (grouped declaration) returns typ="".
func splitNameAndType(field string) (name, typ string, ok bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", "", false
	}

	// Variadic function-value params ("fn func(int) error") and plain
	// "name type" both split on the first run of whitespace.
	idx := strings.IndexAny(field, " \t")
	if idx < 0 {
		// No space: either a bare name (grouped decl) or a bare type.
		// Heuristically treat it as a bare name awaiting its type.
		return field, "", true
	}

	name = strings.TrimSpace(field[:idx])
	typ = strings.TrimSpace(field[idx+1:])
	return name, typ, true
}

// NormalizeType strips pointer/slice/variadic/qualification decoration and
// returns the base type name. Function-typed parameters normalize to
// "func" (the parameter list of a func type is not meaningful downstream).
func NormalizeType(t string) string {
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "...")
	for strings.HasPrefix(t, "*") || strings.HasPrefix(t, "[]") {
		t = strings.TrimPrefix(t, "*")
		t = strings.TrimPrefix(t, "[]")
	}

	if strings.HasPrefix(t, "func") {
		return "func"
	}

	if idx := strings.Index(t, "."); idx >= 0 && !strings.Contains(t[:idx], "{") {
		t = t[idx+1:]
	}

	return t
}
