// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kraklabs/kge/pkg/kgeapi"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *kgeapi.Engine {
	t.Helper()
	e, err := kgeapi.New(kgeapi.Config{
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

func TestRegisterAll_RegistersAllNineOperations(t *testing.T) {
	registry := NewRegistry()
	RegisterAll(registry, newTestEngine(t))

	defs := registry.List()
	names := make(map[string]bool, len(defs))
	for _, d := range defs {
		names[d.Name] = true
	}

	for _, want := range []string{
		"index_directory", "index_file", "index_document",
		"search", "get_context", "get_requirements",
		"query_documents", "find_document_by_path", "record_feedback",
	} {
		require.True(t, names[want], "expected tool %q to be registered", want)
	}
}

func TestIndexDirectoryTool_IndexesAndReturnsCounts(t *testing.T) {
	engine := newTestEngine(t)
	tool := &indexDirectoryTool{engine}

	dir := t.TempDir()
	writeTempFile(t, dir, "main.go", "package main\n\nfunc Greet() string { return \"hi\" }\n")

	result, err := tool.Execute(context.Background(), []byte(`{"path":"`+dir+`"}`))
	require.NoError(t, err)
	require.False(t, result.IsError)
}

func TestSearchTool_RejectsEmptyQuery(t *testing.T) {
	engine := newTestEngine(t)
	tool := &searchTool{engine}

	result, err := tool.Execute(context.Background(), []byte(`{"query":""}`))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestSearchTool_ReturnsRankedResultsAfterIndexing(t *testing.T) {
	engine := newTestEngine(t)
	dirTool := &indexDirectoryTool{engine}
	searchTool := &searchTool{engine}

	dir := t.TempDir()
	writeTempFile(t, dir, "auth.go", "package auth\n\nfunc Login(user string) string { return user }\n")

	_, err := dirTool.Execute(context.Background(), []byte(`{"path":"`+dir+`"}`))
	require.NoError(t, err)

	result, err := searchTool.Execute(context.Background(), []byte(`{"query":"Login","limit":5}`))
	require.NoError(t, err)
	require.False(t, result.IsError)
}

func TestRecordFeedbackTool_RejectsUnknownLogID(t *testing.T) {
	engine := newTestEngine(t)
	tool := &recordFeedbackTool{engine}

	result, err := tool.Execute(context.Background(), []byte(`{"log_id":"does-not-exist","useful":true}`))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestFindDocumentByPathTool_UnknownPathReturnsToolError(t *testing.T) {
	engine := newTestEngine(t)
	tool := &findDocumentByPathTool{engine}

	result, err := tool.Execute(context.Background(), []byte(`{"path":"/does/not/exist.md"}`))
	require.NoError(t, err)
	require.True(t, result.IsError)
}
