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
	"path/filepath"
	"strings"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive     bool
	projectID, embeddingProv  string
	llmURL, llmModel, llmKey  string
}

func runInit(args []string) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", configPath)
		os.Exit(1)
	}

	cfg := createInitConfig(cwd, flags)
	reader := bufio.NewReader(os.Stdin)

	if !flags.nonInteractive {
		runInteractiveConfig(reader, cfg)
	}

	saveInitConfig(cwd, configPath, cfg)
	printNextSteps()
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVar(&f.nonInteractive, "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier")
	fs.StringVar(&f.embeddingProv, "embedding-provider", "", "Embedding provider (ollama, nomic, openai, mock)")
	fs.StringVar(&f.llmURL, "llm-url", "", "LLM API URL (OpenAI-compatible, e.g. http://localhost:11434/v1)")
	fs.StringVar(&f.llmModel, "llm-model", "", "LLM model name")
	fs.StringVar(&f.llmKey, "llm-api-key", "", "LLM API key (optional for local models)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kge init [options]

Creates .kge/project.yaml configuration file.

Examples:
  kge init                               Interactive setup
  kge init -y                            Non-interactive, use all defaults
  kge init --embedding-provider ollama -y

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(cwd string, f initFlags) *Config {
	pid := f.projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := DefaultConfig(pid)
	if f.embeddingProv != "" {
		cfg.Embedding.Provider = f.embeddingProv
	}
	if f.llmURL != "" {
		cfg.LLM.Enabled = true
		cfg.LLM.BaseURL = f.llmURL
	}
	if f.llmModel != "" {
		cfg.LLM.Model = f.llmModel
	}
	if f.llmKey != "" {
		cfg.LLM.APIKey = f.llmKey
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println("Knowledge Graph Engine - Project Configuration")
	fmt.Println("===============================================")
	fmt.Println()

	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)

	fmt.Println()
	fmt.Println("Embedding Providers: ollama, nomic, openai, mock")
	cfg.Embedding.Provider = prompt(reader, "Embedding provider", cfg.Embedding.Provider)
	if cfg.Embedding.Provider == "ollama" || cfg.Embedding.Provider == "openai" {
		cfg.Embedding.BaseURL = prompt(reader, "Embedding API URL", cfg.Embedding.BaseURL)
		cfg.Embedding.Model = prompt(reader, "Embedding model", cfg.Embedding.Model)
	}

	promptLLMConfig(reader, cfg)
	fmt.Println()
}

func promptLLMConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println()
	fmt.Println("LLM Configuration (for HyDE query expansion and draft critique)")
	fmt.Println("Configure an OpenAI-compatible LLM. Leave empty to skip.")
	fmt.Println()

	llmURLInput := prompt(reader, "LLM API URL (e.g. http://localhost:11434/v1)", cfg.LLM.BaseURL)
	if llmURLInput != "" {
		cfg.LLM.Enabled = true
		cfg.LLM.BaseURL = llmURLInput
		cfg.LLM.Model = prompt(reader, "LLM model name", "llama3")
		cfg.LLM.APIKey = prompt(reader, "LLM API key (optional)", cfg.LLM.APIKey)
	}
}

func saveInitConfig(cwd, configPath string, cfg *Config) {
	kgeDir := ConfigDir(cwd)
	if err := os.MkdirAll(kgeDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create .kge directory: %v\n", err)
		os.Exit(1)
	}
	if err := SaveConfig(cfg, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd)
}

func printNextSteps() {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .kge/project.yaml if needed")
	fmt.Println("  2. Run 'kge index .' to index your repository")
	fmt.Println("  3. Run 'kge status' to verify indexing")
}

// prompt displays an interactive prompt and reads user input from stdin,
// returning defaultValue when the user presses Enter without typing.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .kge/ to the project's .gitignore file if not
// already present. Silently returns if .gitignore does not exist.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}

	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == ".kge/" || line == ".kge" || line == "/.kge/" || line == "/.kge" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}

	_, _ = f.WriteString("\n# Knowledge Graph Engine\n.kge/\n")
	fmt.Println("Added .kge/ to .gitignore")
}
