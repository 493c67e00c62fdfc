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
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kraklabs/kge/internal/errors"
	"github.com/kraklabs/kge/internal/output"
	"github.com/kraklabs/kge/pkg/kgeapi"
)

func runSearch(args []string, configPath string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	limit := fs.Int("limit", 10, "Maximum number of results")
	minScore := fs.Float64("min-score", 0, "Minimum fused score to include")
	types := fs.String("types", "", "Comma-separated entity types to restrict results to")
	hyde := fs.Bool("hyde", false, "Expand the query with a hypothetical-answer embedding before searching")
	timeout := fs.Duration("timeout", 30*time.Second, "Search timeout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kge search <query> [options]\n\nRuns multi-strategy retrieval (keyword, semantic, graph) fused with reciprocal rank fusion.\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		errors.FatalError(errors.NewInputError("Missing query", "kge search requires a query string", "kge search \"how does auth work\""), *jsonOut)
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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	opts := kgeapi.SearchOptions{
		Limit:    *limit,
		MinScore: *minScore,
		UseHyDE:  *hyde,
	}
	if *types != "" {
		opts.EntityTypes = strings.Split(*types, ",")
	}

	result, err := engine.Search(ctx, query, opts)
	if err != nil {
		errors.FatalError(errors.NewInternalError("Search failed", err.Error(), "", err), *jsonOut)
		return
	}

	if *jsonOut {
		_ = output.JSON(result)
		return
	}
	printSearchResults(query, result)
}

func printSearchResults(query string, r kgeapi.SearchResult) {
	if len(r.Results) == 0 {
		fmt.Printf("No results for %q\n", query)
		return
	}
	fmt.Printf("%d result(s) for %q:\n\n", len(r.Results), query)

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTYPE\tNAME\tLOCATION")
	for _, item := range r.Results {
		location := item.File
		if item.Line > 0 {
			location = fmt.Sprintf("%s:%d", item.File, item.Line)
		}
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n", item.FusedScore, item.Type, item.Name, location)
	}
	_ = w.Flush()

	if r.LogID != "" {
		fmt.Printf("\nquery logged as %s (use 'kge feedback %s' to mark usefulness)\n", r.LogID, r.LogID)
	}
}
