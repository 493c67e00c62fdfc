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

	"github.com/kraklabs/kge/internal/errors"
)

func runFeedback(args []string, configPath string) {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	useful := fs.Bool("useful", true, "Mark the query as useful (pass --useful=false to mark it unhelpful)")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kge feedback <log_id> [--useful=true|false]\n\nRecords whether a previously logged search or context query was useful.\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError("Missing log_id", "kge feedback requires exactly one log_id argument", "kge feedback <log_id> --useful=true"), *jsonOut)
		return
	}
	logID := fs.Arg(0)

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

	if err := engine.RecordFeedback(context.Background(), logID, *useful); err != nil {
		errors.FatalError(errors.NewNotFoundError("Cannot record feedback", err.Error(), "Check that log_id came from a recent 'kge search' or 'kge context' call"), *jsonOut)
		return
	}

	fmt.Printf("Recorded feedback for %s: useful=%t\n", logID, *useful)
}
