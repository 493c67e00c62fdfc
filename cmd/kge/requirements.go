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
	"text/tabwriter"

	"github.com/kraklabs/kge/internal/errors"
	"github.com/kraklabs/kge/internal/output"
	"github.com/kraklabs/kge/pkg/kgeapi"
)

func runRequirements(args []string, configPath string) {
	fs := flag.NewFlagSet("requirements", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	reqType := fs.String("type", "", "Filter by requirement type (requirement, feature, user-story, constraint)")
	limit := fs.Int("limit", 100, "Maximum number of requirements to return")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kge requirements [options]\n\nLists requirement entities extracted during document ingestion.\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

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

	reqs, err := engine.GetRequirements(context.Background(), kgeapi.RequirementFilter{
		ReqType: *reqType,
		Limit:   *limit,
	})
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot list requirements", err.Error(), "", err), *jsonOut)
		return
	}

	if *jsonOut {
		_ = output.JSON(reqs)
		return
	}
	printRequirements(reqs)
}

func printRequirements(reqs []kgeapi.Requirement) {
	if len(reqs) == 0 {
		fmt.Println("No requirements found.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tFILE\tDESCRIPTION")
	for _, r := range reqs {
		desc := r.Description
		if len(desc) > 80 {
			desc = desc[:80] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ReqType, r.File, desc)
	}
	_ = w.Flush()
}
