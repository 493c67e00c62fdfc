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
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kraklabs/kge/internal/errors"
	"github.com/kraklabs/kge/internal/output"
	"github.com/kraklabs/kge/internal/ui"
	"github.com/kraklabs/kge/pkg/kgeapi"
	"github.com/schollz/progressbar/v3"
)

func runIndex(args []string, configPath string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	force := fs.Bool("force", false, "Reindex even when content hashes already match")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kge index [path] [options]

Indexes a directory (source tree), a single source file, or a single
document (markdown, YAML, JSON, TOML, HTML, CSV, XML, plain text).
path defaults to the current directory.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path := "."
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load project configuration", err.Error(),
			"Run 'kge init' to create a configuration", err,
		), *jsonOut)
		return
	}

	engine, err := newEngine(cfg, logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open project store", err.Error(),
			"Run 'kge init' first or check that the data directory is writable", err,
		), *jsonOut)
		return
	}
	defer func() { _ = engine.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, statErr := os.Stat(path)
	opts := kgeapi.IndexOptions{Force: *force}
	isDir := statErr == nil && info.IsDir()

	spinner := NewSpinner(NewProgressConfig(*jsonOut), "indexing "+path)
	stopSpinner := animateSpinner(spinner)

	var result kgeapi.IndexResult
	switch {
	case isDir:
		result, err = engine.IndexDirectory(ctx, path, opts)
	case isDocumentPath(path):
		result, err = engine.IndexDocument(ctx, path, opts)
	default:
		result, err = engine.IndexFile(ctx, path, opts)
	}
	stopSpinner()

	if err != nil {
		errors.FatalError(errors.NewInternalError(
			fmt.Sprintf("Indexing %s failed", path), err.Error(), "", err,
		), *jsonOut)
		return
	}

	if *jsonOut {
		_ = output.JSON(result)
		return
	}
	printIndexResult(path, result)
}

// animateSpinner ticks an indeterminate spinner until the returned stop
// function is called. bar may be nil when progress is disabled, in
// which case the returned function is a no-op.
func animateSpinner(bar *progressbar.ProgressBar) func() {
	if bar == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() { close(done) }
}

var documentExtensions = map[string]bool{
	".md": true, ".markdown": true, ".yaml": true, ".yml": true,
	".json": true, ".toml": true, ".html": true, ".htm": true,
	".csv": true, ".xml": true, ".txt": true, ".rst": true,
}

func isDocumentPath(path string) bool {
	for ext := range documentExtensions {
		if strings.HasSuffix(strings.ToLower(path), ext) {
			return true
		}
	}
	return false
}

func printIndexResult(path string, r kgeapi.IndexResult) {
	if r.Skipped {
		fmt.Printf("%s: %s\n", path, ui.DimText("unchanged, skipped"))
		return
	}
	ui.Successf("Indexed %s", path)
	fmt.Printf("  %s %s\n", ui.Label("Files processed:"), ui.CountText(r.FilesProcessed))
	if r.FilesSkipped > 0 {
		fmt.Printf("  %s %s\n", ui.Label("Files skipped:"), ui.CountText(r.FilesSkipped))
	}
	fmt.Printf("  %s %s\n", ui.Label("Entities created:"), ui.CountText(r.EntitiesCreated))
	fmt.Printf("  %s %s\n", ui.Label("Relationships created:"), ui.CountText(r.RelationshipsCreated))
	if r.CrossDocLinks > 0 {
		fmt.Printf("  %s %s\n", ui.Label("Cross-document links:"), ui.CountText(r.CrossDocLinks))
	}
	fmt.Printf("  %s %s\n", ui.Label("Embeddings generated:"), ui.CountText(r.EmbeddingsGenerated))
	for _, fe := range r.Errors {
		ui.Warningf("%s: %s", fe.Path, fe.Error)
	}
}
