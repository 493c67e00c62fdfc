// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"crypto/md5"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/kge/internal/contract"
)

// defaultMaxCodeTextSize bounds how much source text a single function or
// type entity carries inline, to keep rows small and embedding requests
// bounded.
const defaultMaxCodeTextSize = 8192

// TreeSitterParser extracts functions, types, imports, and call edges
// from source files using tree-sitter grammars. One instance is safe for
// concurrent use across files: each call obtains its own parse tree.
type TreeSitterParser struct {
	goParser *sitter.Parser
	tsParser *sitter.Parser
	jsParser *sitter.Parser

	logger *slog.Logger

	mu              sync.Mutex // guards maxCodeTextSize / truncatedCount
	maxCodeTextSize int64
	truncatedCount  int64
}

// NewTreeSitterParser builds a parser with Go, TypeScript, and JavaScript
// grammars loaded. logger may be nil, in which case slog.Default() is used.
func NewTreeSitterParser(logger *slog.Logger) *TreeSitterParser {
	if logger == nil {
		logger = slog.Default()
	}

	goParser := sitter.NewParser()
	goParser.SetLanguage(golang.GetLanguage())

	tsParser := sitter.NewParser()
	tsParser.SetLanguage(typescript.GetLanguage())

	jsParser := sitter.NewParser()
	jsParser.SetLanguage(javascript.GetLanguage())

	return &TreeSitterParser{
		goParser:        goParser,
		tsParser:        tsParser,
		jsParser:        jsParser,
		logger:          logger,
		maxCodeTextSize: defaultMaxCodeTextSize,
	}
}

// SetMaxCodeTextSize sets the maximum size, in bytes, of CodeText carried
// by an extracted entity. Longer text is truncated and GetTruncatedCount
// is incremented.
func (p *TreeSitterParser) SetMaxCodeTextSize(size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if size > 0 {
		p.maxCodeTextSize = size
	}
}

// GetTruncatedCount returns how many CodeText values have been truncated
// since the parser was created or last reset.
func (p *TreeSitterParser) GetTruncatedCount() int {
	return int(atomic.LoadInt64(&p.truncatedCount))
}

// ResetTruncatedCount zeroes the truncation counter.
func (p *TreeSitterParser) ResetTruncatedCount() {
	atomic.StoreInt64(&p.truncatedCount, 0)
}

func (p *TreeSitterParser) truncateCodeText(text string) string {
	p.mu.Lock()
	limit := p.maxCodeTextSize
	p.mu.Unlock()

	if limit <= 0 || int64(len(text)) <= limit {
		return text
	}
	atomic.AddInt64(&p.truncatedCount, 1)
	return text[:limit]
}

// ParseFile parses a single source file according to its detected
// language and returns the entities and edges extracted from it.
// Unsupported languages yield a ParseResult containing only the file
// entity, not an error.
func (p *TreeSitterParser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	content, err := os.ReadFile(fileInfo.FullPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileInfo.Path, err)
	}

	if res := contract.ValidatePayloadSize(string(content)); !res.OK {
		return nil, fmt.Errorf("%s: %s", fileInfo.Path, res.Message)
	}

	file := FileEntity{
		ID:       GenerateFileID(fileInfo.Path),
		Path:     fileInfo.Path,
		Hash:     fmt.Sprintf("%x", md5.Sum(content)),
		Language: fileInfo.Language,
		Size:     fileInfo.Size,
	}

	switch strings.ToLower(fileInfo.Language) {
	case "go":
		res, err := p.parseGoAST(content, fileInfo.Path)
		if err != nil {
			return nil, fmt.Errorf("parse go ast %s: %w", fileInfo.Path, err)
		}
		return &ParseResult{
			File:            file,
			Functions:       res.Functions,
			Types:           res.Types,
			Imports:         res.Imports,
			Calls:           res.Calls,
			UnresolvedCalls: res.UnresolvedCalls,
			Defines:         definesEdgesFor(file.ID, res.Functions),
			DefinesTypes:    definesTypeEdgesFor(file.ID, res.Types),
			PackageName:     res.PackageName,
		}, nil

	case "typescript", "tsx", "javascript", "jsx":
		functions, types, calls, err := p.parseTypeScriptAST(content, fileInfo.Path)
		if err != nil {
			return nil, fmt.Errorf("parse typescript ast %s: %w", fileInfo.Path, err)
		}
		return &ParseResult{
			File:         file,
			Functions:    functions,
			Types:        types,
			Calls:        calls,
			Defines:      definesEdgesFor(file.ID, functions),
			DefinesTypes: definesTypeEdgesFor(file.ID, types),
		}, nil

	case "protobuf":
		functions, calls := parseProtobufSimplified(content, fileInfo.Path, p)
		return &ParseResult{
			File:      file,
			Functions: functions,
			Calls:     calls,
			Defines:   definesEdgesFor(file.ID, functions),
		}, nil

	default:
		p.logger.Debug("parser.unsupported_language", "path", fileInfo.Path, "language", fileInfo.Language)
		return &ParseResult{File: file}, nil
	}
}
