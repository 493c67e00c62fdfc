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

// Package docingest parses non-code documents (markdown, YAML, JSON,
// TOML, HTML, CSV, XML, PDF, plain text) into a document entity plus
// type-specific children, chunks long sections for embedding, links code
// references found in prose back to indexed code entities, and extracts
// requirements from curated section headings.
package docingest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kraklabs/kge/internal/contract"
)

// Document is the top-level parsed unit produced by every pipeline.
type Document struct {
	ID        string // "doc:" + path within this parse; see write.go for store id mapping
	Path      string
	Title     string
	Format    string
	Hash      string // md5 of the raw bytes, for incremental-update skip checks
	Sections  []Section
	Links     []Link
	Children  []ChildEntity
	Relations []Relation
}

// Section is one heading-delimited (or format-equivalent) region of a
// document, after chunking.
type Section struct {
	ID         string
	ParentID   string // "" for a top-level section
	Title      string
	Level      int
	Content    string
	Chunks     []Chunk
	CodeBlocks []CodeBlock
}

// Chunk is one embedding-sized slice of a section's content.
type Chunk struct {
	ID      string // SectionID, or SectionID + "-chunk-N" for split sections
	Content string
}

// CodeBlock is one fenced code block found in a section.
type CodeBlock struct {
	Language string
	Content  string
}

// Link is one outbound reference found in a document.
type Link struct {
	Text     string
	URL      string
	Internal bool // url does not begin with http:// or https://
}

// ChildEntity is a non-section entity a pipeline emits under the
// document (component, variable, technology, task, requirement, ...).
type ChildEntity struct {
	ID            string
	Type          string // store.EntityType value, kept as string to avoid a store import here
	Name          string
	QualifiedName string
	Content       string
	Summary       string
	ParentID      string // entity this child CONTAINS-relates from
	Metadata      map[string]any
}

// Relation is a cross-reference between two already-identified entities
// within this parse (document, section, or child), resolved to store ids
// by write.go.
type Relation struct {
	SourceID     string
	TargetID     string
	Relationship string // store.RelationshipType value
}

// Requirement is one extracted requirement, feature, or user story.
type Requirement struct {
	ID          string
	SectionID   string
	Description string
	Type        string // requirement, feature, user-story, constraint
	Priority    string // must, should, could, wont
	Acceptance  []string
}

// Pipeline parses one document's raw bytes into a Document.
type Pipeline interface {
	Parse(path string, content []byte) (*Document, error)
}

// Dispatcher selects a Pipeline by file extension.
type Dispatcher struct {
	byExt       map[string]Pipeline
	pdfProvider PDFTextProvider
}

// NewDispatcher builds a Dispatcher wired with every built-in pipeline.
// pdfProvider may be nil; PDF documents are then skipped with an error
// rather than silently dropped.
func NewDispatcher(pdfProvider PDFTextProvider) *Dispatcher {
	md := &MarkdownPipeline{}
	d := &Dispatcher{byExt: map[string]Pipeline{}, pdfProvider: pdfProvider}
	d.byExt[".md"] = md
	d.byExt[".markdown"] = md
	d.byExt[".yaml"] = &YAMLPipeline{}
	d.byExt[".yml"] = &YAMLPipeline{}
	d.byExt[".json"] = &JSONPipeline{}
	d.byExt[".toml"] = &TOMLPipeline{}
	d.byExt[".html"] = &HTMLPipeline{}
	d.byExt[".htm"] = &HTMLPipeline{}
	d.byExt[".csv"] = &CSVPipeline{}
	d.byExt[".xml"] = &XMLPipeline{}
	d.byExt[".txt"] = &PlainTextPipeline{}
	if pdfProvider != nil {
		d.byExt[".pdf"] = &PDFPipeline{Provider: pdfProvider}
	}
	return d
}

// Parse dispatches path to its pipeline by extension.
func (d *Dispatcher) Parse(path string, content []byte) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	pipeline, ok := d.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("docingest: no pipeline registered for extension %q", ext)
	}

	if res := contract.ValidatePayloadSize(string(content)); !res.OK {
		return nil, fmt.Errorf("docingest: %s: %s", path, res.Message)
	}

	doc, err := pipeline.Parse(path, content)
	if err != nil {
		return nil, err
	}
	doc.Hash = hashBytes(content)
	if doc.Path == "" {
		doc.Path = path
	}
	if doc.ID == "" {
		doc.ID = "doc:" + path
	}
	return doc, nil
}

// SupportedExtension reports whether ext (including the leading dot) has
// a registered pipeline.
func (d *Dispatcher) SupportedExtension(ext string) bool {
	_, ok := d.byExt[strings.ToLower(ext)]
	return ok
}

func hashBytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
