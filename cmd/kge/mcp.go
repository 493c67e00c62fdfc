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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kraklabs/kge/internal/mcpserver"
)

// runMCPServer loads the project configuration at configPath, wires an
// engine against it, and serves the nine retrieval/ingestion operations
// as MCP tools over JSON-RPC on stdio until the client disconnects or the
// process is signaled to stop.
func runMCPServer(configPath string) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kge --mcp: %v\n", err)
		os.Exit(1)
	}

	engine, err := newEngine(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kge --mcp: cannot open project store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	registry := mcpserver.NewRegistry()
	mcpserver.RegisterAll(registry, engine)

	server := mcpserver.NewServer(registry, mcpserver.ServerInfo{
		Name:    "kge",
		Version: version,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Error("mcpserver.run.failed", "error", err)
		os.Exit(1)
	}
}
