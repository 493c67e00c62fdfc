// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package kgeapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	kgectx "github.com/kraklabs/kge/pkg/context"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{
		ProjectID:         "test-project",
		DataDir:           t.TempDir(),
		EmbeddingProvider: "mock",
		LogQueries:        true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexDirectory_IndexesGoSourceAndReportsCounts(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeTempFile(t, dir, "main.go", "package main\n\nfunc Greet(name string) string {\n\treturn \"hello \" + name\n}\n")

	result, err := e.IndexDirectory(ctx, dir, IndexOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesProcessed)
	require.Greater(t, result.EntitiesCreated, 0)
	require.Empty(t, result.Errors)
}

func TestIndexFile_WritesSingleFileWithoutWholeDirectorySweep(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := writeTempFile(t, dir, "util.go", "package util\n\nfunc Double(n int) int {\n\treturn n * 2\n}\n")

	result, err := e.IndexFile(ctx, path, IndexOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesProcessed)
	require.Greater(t, result.EntitiesCreated, 0)
}

func TestIndexDocument_WritesMarkdownAndEmbedsChunks(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := writeTempFile(t, dir, "README.md", "# Overview\n\nThis project does things.\n\n## Requirements\n\n- The system must validate input.\n")

	result, err := e.IndexDocument(ctx, path, IndexOptions{})
	require.NoError(t, err)
	require.False(t, result.Skipped)
	require.Greater(t, result.EntitiesCreated, 0)
	require.GreaterOrEqual(t, result.EmbeddingsGenerated, 1)
}

func TestIndexDocument_SecondIngestOfUnchangedFileSkips(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := writeTempFile(t, dir, "README.md", "# Overview\n\nUnchanged content.\n")

	_, err := e.IndexDocument(ctx, path, IndexOptions{})
	require.NoError(t, err)

	result, err := e.IndexDocument(ctx, path, IndexOptions{})
	require.NoError(t, err)
	require.True(t, result.Skipped)
}

func TestSearchAndGetContext_ReturnRankedEntitiesAndAssembledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeTempFile(t, dir, "auth.go", "package auth\n\n// Login validates credentials and returns a session token.\nfunc Login(user, pass string) (string, error) {\n\treturn \"token\", nil\n}\n")

	_, err := e.IndexDirectory(ctx, dir, IndexOptions{})
	require.NoError(t, err)

	searchResult, err := e.Search(ctx, "Login", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, searchResult.Results)
	require.NotEmpty(t, searchResult.LogID)

	ctxResult, err := e.GetContext(ctx, "Login", ContextOptions{
		Search:  SearchOptions{Limit: 10},
		Context: kgectx.Options{MaxTokens: 2000, Format: kgectx.FormatMarkdown, IncludeSources: true},
	})
	require.NoError(t, err)
	require.NotEmpty(t, ctxResult.Context)
	require.LessOrEqual(t, ctxResult.TokenCount, 2000)
}

func TestRecordFeedback_MarksLoggedSearchAsUseful(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeTempFile(t, dir, "a.go", "package a\n\nfunc A() {}\n")
	_, err := e.IndexDirectory(ctx, dir, IndexOptions{})
	require.NoError(t, err)

	searchResult, err := e.Search(ctx, "A", SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, searchResult.LogID)

	require.NoError(t, e.RecordFeedback(ctx, searchResult.LogID, true))
}

func TestGetRequirements_FiltersByReqType(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := writeTempFile(t, dir, "SPEC.md", "# Requirements\n\n- The system must encrypt data at rest.\n- The system should cache results.\n")

	_, err := e.IndexDocument(ctx, path, IndexOptions{})
	require.NoError(t, err)

	reqs, err := e.GetRequirements(ctx, RequirementFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, reqs)
}

func TestFindDocumentByPath_ReturnsIndexedDocument(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := writeTempFile(t, dir, "GUIDE.md", "# Guide\n\nSome content.\n")

	_, err := e.IndexDocument(ctx, path, IndexOptions{})
	require.NoError(t, err)

	ent, err := e.FindDocumentByPath(ctx, path)
	require.NoError(t, err)
	require.Equal(t, path, ent.QualifiedName)
}
