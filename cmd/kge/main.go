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

// Package main implements the kge CLI for indexing a project's source and
// documents into a local knowledge graph and querying it.
//
// Usage:
//
//	kge init                       Create .kge/project.yaml configuration
//	kge index [path]                Index a directory, file, or document
//	kge search <query> [--json]    Run multi-strategy retrieval
//	kge context <query> [--json]   Assemble a token-budgeted context block
//	kge requirements [--json]      List extracted requirements
//	kge feedback <log_id>          Mark a logged query as useful or not
//	kge status [--json]            Show project status
//	kge reset --yes                Delete all local project data
//	kge --mcp                      Start as MCP server (JSON-RPC over stdio)
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kraklabs/kge/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		mcpMode     = flag.Bool("mcp", false, "Start as MCP server (JSON-RPC over stdio)")
		configPath  = flag.String("config", "", "Path to .kge/project.yaml (default: ./.kge/project.yaml)")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `kge - Knowledge Graph Engine CLI

Usage:
  kge <command> [options]

Commands:
  init          Create .kge/project.yaml configuration
  index         Index a directory, file, or document
  search        Run multi-strategy retrieval over the knowledge graph
  context       Assemble a token-budgeted context block for a query
  requirements  List requirement entities extracted from documents
  feedback      Mark a previously logged query as useful or not
  status        Show project status
  reset         Reset local project data (destructive!)

Global Options:
  --mcp         Start as MCP server (JSON-RPC over stdio)
  --config      Path to .kge/project.yaml
  --no-color    Disable colored output
  --version     Show version and exit

Examples:
  kge init                           Create configuration interactively
  kge index .                        Index the current repository
  kge index --force                  Force full re-index
  kge index docs/README.md           Index a single document
  kge search "how does auth work"
  kge context "how does auth work" --json
  kge status --json                  Output as JSON (for MCP)
  kge --mcp                          Start as MCP server

Data Storage:
  Data is stored locally in ~/.kge/data/<project_id>/

`)
	}

	flag.Parse()
	ui.InitColors(*noColor || os.Getenv("NO_COLOR") != "")

	if *showVersion {
		fmt.Printf("kge version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if *mcpMode {
		runMCPServer(*configPath)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "index":
		runIndex(cmdArgs, *configPath)
	case "search":
		runSearch(cmdArgs, *configPath)
	case "context":
		runContext(cmdArgs, *configPath)
	case "requirements":
		runRequirements(cmdArgs, *configPath)
	case "feedback":
		runFeedback(cmdArgs, *configPath)
	case "status":
		runStatus(cmdArgs, *configPath)
	case "reset":
		runReset(cmdArgs, *configPath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
