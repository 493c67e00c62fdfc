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
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync/atomic"
)

// Parser is a regex/line-scan fallback code parser. It does not require
// a tree-sitter grammar and handles only common, single-line declaration
// forms — good enough to keep ingestion running when a grammar is
// unavailable, at the cost of missing nested/anonymous functions and
// cross-line signatures.
type Parser struct {
	logger          *slog.Logger
	maxCodeTextSize int64
	truncatedCount  int64
}

var (
	goFuncRe   = regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_]\w*)\s*\(`)
	goImportRe = regexp.MustCompile(`^\s*"([^"]+)"`)
	goTypeRe   = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+(struct|interface)\b`)

	tsFuncRe  = regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_]\w*)\s*\(`)
	tsClassRe = regexp.MustCompile(`^(?:export\s+)?(?:abstract\s+)?class\s+([A-Za-z_]\w*)`)
)

// NewParser builds a simplified parser. logger may be nil.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger, maxCodeTextSize: defaultMaxCodeTextSize}
}

func (p *Parser) SetMaxCodeTextSize(size int64) {
	if size > 0 {
		p.maxCodeTextSize = size
	}
}

func (p *Parser) GetTruncatedCount() int { return int(atomic.LoadInt64(&p.truncatedCount)) }

func (p *Parser) ResetTruncatedCount() { atomic.StoreInt64(&p.truncatedCount, 0) }

func (p *Parser) truncateCodeText(text string) string {
	if p.maxCodeTextSize <= 0 || int64(len(text)) <= p.maxCodeTextSize {
		return text
	}
	atomic.AddInt64(&p.truncatedCount, 1)
	return text[:p.maxCodeTextSize]
}

// ParseFile line-scans fileInfo for declarations. Unsupported languages
// yield a ParseResult containing only the file entity.
func (p *Parser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	f, err := os.Open(fileInfo.FullPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fileInfo.Path, err)
	}
	defer f.Close()

	file := FileEntity{
		ID:       GenerateFileID(fileInfo.Path),
		Path:     fileInfo.Path,
		Language: fileInfo.Language,
		Size:     fileInfo.Size,
	}
	result := &ParseResult{File: file}

	switch fileInfo.Language {
	case "go":
		p.scanGo(f, fileInfo.Path, result)
	case "typescript", "tsx", "javascript", "jsx":
		p.scanTS(f, fileInfo.Path, result)
	default:
		p.logger.Debug("parser.simplified.unsupported_language", "path", fileInfo.Path, "language", fileInfo.Language)
	}
	return result, nil
}

func (p *Parser) scanGo(f *os.File, path string, result *ParseResult) {
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := goFuncRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			codeText := p.truncateCodeText(line)
			id := GenerateFunctionID(path, name, line, lineNo, lineNo, 1, len(line)+1)
			result.Functions = append(result.Functions, FunctionEntity{
				ID:        id,
				Name:      name,
				Signature: line,
				FilePath:  path,
				CodeText:  codeText,
				StartLine: lineNo,
				EndLine:   lineNo,
			})
			result.Defines = append(result.Defines, DefinesEdge{FileID: result.File.ID, FunctionID: id})
			continue
		}

		if m := goTypeRe.FindStringSubmatch(line); m != nil {
			name, kind := m[1], m[2]
			id := GenerateTypeID(path, name, lineNo, lineNo)
			result.Types = append(result.Types, TypeEntity{
				ID:        id,
				Name:      name,
				Kind:      kind,
				FilePath:  path,
				CodeText:  p.truncateCodeText(line),
				StartLine: lineNo,
				EndLine:   lineNo,
			})
			result.DefinesTypes = append(result.DefinesTypes, DefinesTypeEdge{FileID: result.File.ID, TypeID: id})
			continue
		}

		if m := goImportRe.FindStringSubmatch(line); m != nil {
			importPath := m[1]
			result.Imports = append(result.Imports, ImportEntity{
				ID:         GenerateImportID(path, importPath),
				FilePath:   path,
				ImportPath: importPath,
				StartLine:  lineNo,
				IsExternal: !isRelativeImport(importPath),
			})
		}
	}
}

func (p *Parser) scanTS(f *os.File, path string, result *ParseResult) {
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := tsFuncRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			id := GenerateFunctionID(path, name, line, lineNo, lineNo, 1, len(line)+1)
			result.Functions = append(result.Functions, FunctionEntity{
				ID:        id,
				Name:      name,
				Signature: line,
				FilePath:  path,
				CodeText:  p.truncateCodeText(line),
				StartLine: lineNo,
				EndLine:   lineNo,
			})
			result.Defines = append(result.Defines, DefinesEdge{FileID: result.File.ID, FunctionID: id})
			continue
		}

		if m := tsClassRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			id := GenerateTypeID(path, name, lineNo, lineNo)
			result.Types = append(result.Types, TypeEntity{
				ID:        id,
				Name:      name,
				Kind:      "class",
				FilePath:  path,
				CodeText:  p.truncateCodeText(line),
				StartLine: lineNo,
				EndLine:   lineNo,
			})
			result.DefinesTypes = append(result.DefinesTypes, DefinesTypeEdge{FileID: result.File.ID, TypeID: id})
		}
	}
}

func isRelativeImport(path string) bool {
	return len(path) >= 2 && (path[:2] == "./" || path[:2] == "..")
}
