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

package main

import (
	stdctx "context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kraklabs/kge/internal/errors"
	"github.com/kraklabs/kge/internal/output"
	kgectx "github.com/kraklabs/kge/pkg/context"
	"github.com/kraklabs/kge/pkg/kgeapi"
)

func runContext(args []string, configPath string) {
	fs := flag.NewFlagSet("context", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	maxTokens := fs.Int("max-tokens", 4000, "Token budget for the assembled context")
	format := fs.String("format", kgectx.FormatMarkdown, "Output format: markdown, xml, or plain")
	limit := fs.Int("limit", 10, "Maximum number of sources to consider")
	hyde := fs.Bool("hyde", false, "Expand the query with a hypothetical-answer embedding before searching")
	noSources := fs.Bool("no-sources", false, "Omit the source list from the assembled context")
	groupByType := fs.Bool("group-by-type", false, "Group sources by entity type in the assembled context")
	timeout := fs.Duration("timeout", 30*time.Second, "Context assembly timeout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kge context <query> [options]\n\nRuns search and assembles a token-budgeted context block from the results.\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		errors.FatalError(errors.NewInputError("Missing query", "kge context requires a query string", "kge context \"how does auth work\""), *jsonOut)
		return
	}
	query := strings.Join(fs.Args(), " ")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("Cannot load project configuration", err.Error(), "Run 'kge init' to create a configuration", err), *jsonOut)
		return
	}

	engine, err := newEngine(cfg, nil)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot open project store", err.Error(), "Run 'kge init' first", err), *jsonOut)
		return
	}
	defer func() { _ = engine.Close() }()

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), *timeout)
	defer cancel()

	opts := kgeapi.ContextOptions{
		Search: kgeapi.SearchOptions{Limit: *limit, UseHyDE: *hyde},
		Context: kgectx.Options{
			MaxTokens:      *maxTokens,
			Format:         kgectx.Format(*format),
			IncludeSources: !*noSources,
			GroupByType:    *groupByType,
		},
	}

	result, err := engine.GetContext(ctx, query, opts)
	if err != nil {
		errors.FatalError(errors.NewInternalError("Context assembly failed", err.Error(), "", err), *jsonOut)
		return
	}

	if *jsonOut {
		_ = output.JSON(result)
		return
	}
	fmt.Print(result.Context)
	fmt.Printf("\n--- %d tokens, %d source(s)", result.TokenCount, len(result.Sources))
	if result.Truncated {
		fmt.Print(", truncated")
	}
	fmt.Println(" ---")
}
