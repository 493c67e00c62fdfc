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
	"time"

	"github.com/kraklabs/kge/internal/bootstrap"
	"github.com/kraklabs/kge/internal/errors"
	"github.com/kraklabs/kge/internal/output"
	"github.com/kraklabs/kge/internal/ui"
	"github.com/kraklabs/kge/pkg/store"
)

// StatusResult is the structured result of the status command.
type StatusResult struct {
	ProjectID     string `json:"project_id"`
	DataDir       string `json:"data_dir"`
	Connected     bool   `json:"connected"`
	Files         int    `json:"files"`
	Functions     int    `json:"functions"`
	Types         int    `json:"types"`
	Documents     int    `json:"documents"`
	Requirements  int    `json:"requirements"`
	Embeddings    int    `json:"embeddings"`
	CallEdges     int    `json:"call_edges"`
	Error         string `json:"error,omitempty"`
	Timestamp     string `json:"timestamp"`
}

func runStatus(args []string, configPath string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kge status [--json]\n\nShows entity counts and connection status for the current project.\n")
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

	result := StatusResult{
		ProjectID: cfg.ProjectID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	db, err := bootstrap.OpenProject(bootstrap.ProjectConfig{ProjectID: cfg.ProjectID}, nil)
	if err != nil {
		result.Error = err.Error()
		if *jsonOut {
			_ = output.JSON(result)
		} else {
			printLocalStatus(result)
		}
		return
	}
	defer func() { _ = db.Close() }()

	result.Connected = true
	result.DataDir = mustDataDir(cfg.ProjectID)
	populateCounts(&result, db)

	if *jsonOut {
		if err := output.JSON(result); err != nil {
			errors.FatalError(errors.NewInternalError("Cannot encode status as JSON", err.Error(), "", err), true)
		}
		return
	}
	printLocalStatus(result)
}

func mustDataDir(projectID string) string {
	dir, err := store.DefaultDataDir(projectID)
	if err != nil {
		return ""
	}
	return dir
}

func populateCounts(result *StatusResult, db *store.DB) {
	ctx := context.Background()
	projectID := result.ProjectID

	count := func(t store.EntityType) int {
		n, err := db.CountByType(ctx, projectID, t)
		if err != nil {
			return 0
		}
		return n
	}

	result.Files = count(store.EntityFile)
	result.Functions = count(store.EntityFunction) + count(store.EntityMethod)
	result.Types = count(store.EntityClass) + count(store.EntityInterface) + count(store.EntityTypeAlias)
	result.Documents = count(store.EntityDocument) + count(store.EntitySection)
	result.Requirements = count(store.EntityRequirement)

	if n, err := db.Count(ctx, projectID, store.RelCalls); err == nil {
		result.CallEdges = n
	}
	if n, err := db.CountEmbeddings(ctx, projectID, "code"); err == nil {
		result.Embeddings = n
	}
}

func printLocalStatus(r StatusResult) {
	ui.Header(fmt.Sprintf("Project: %s", r.ProjectID))
	if r.DataDir != "" {
		fmt.Printf("%s %s\n", ui.Label("Data dir:"), ui.DimText(r.DataDir))
	}
	if !r.Connected {
		ui.Warning("not initialized")
		if r.Error != "" {
			ui.Error(r.Error)
		}
		return
	}
	ui.Success("connected")
	fmt.Println()
	fmt.Printf("  %s %s\n", ui.Label("Files:"), ui.CountText(r.Files))
	fmt.Printf("  %s %s\n", ui.Label("Functions:"), ui.CountText(r.Functions))
	fmt.Printf("  %s %s\n", ui.Label("Types:"), ui.CountText(r.Types))
	fmt.Printf("  %s %s\n", ui.Label("Documents:"), ui.CountText(r.Documents))
	fmt.Printf("  %s %s\n", ui.Label("Requirements:"), ui.CountText(r.Requirements))
	fmt.Printf("  %s %s\n", ui.Label("Call edges:"), ui.CountText(r.CallEdges))
	fmt.Printf("  %s %s\n", ui.Label("Embeddings:"), ui.CountText(r.Embeddings))
}
