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
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kraklabs/kge/internal/errors"
	"github.com/kraklabs/kge/pkg/store"
)

func runReset(args []string, configPath string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip confirmation prompt")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kge reset --yes\n\nDeletes all locally stored data for the current project. This cannot be undone.\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load project configuration", err.Error(),
			"Run 'kge init' to create a configuration", err,
		), *jsonOut)
		return
	}

	dataDir, err := store.DefaultDataDir(cfg.ProjectID)
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot resolve data directory", err.Error(), "", err), *jsonOut)
		return
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		fmt.Printf("Nothing to reset: %s does not exist.\n", dataDir)
		return
	}

	if !*yes {
		fmt.Printf("This will permanently delete all indexed data for project %q at:\n  %s\n\n", cfg.ProjectID, dataDir)
		fmt.Print("Continue? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))
		if input != "y" && input != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	if err := os.RemoveAll(dataDir); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot remove project data",
			err.Error(),
			"Check file permissions on "+dataDir,
			err,
		), *jsonOut)
		return
	}

	fmt.Printf("Removed %s\n", dataDir)
	fmt.Println("Run 'kge init' and 'kge index .' to start over.")
}
