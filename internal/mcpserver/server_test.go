// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type echoTool struct {
	name string
}

func (e *echoTool) Name() string                 { return e.name }
func (e *echoTool) Description() string          { return "echoes its arguments back" }
func (e *echoTool) InputSchema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (e *echoTool) Execute(_ context.Context, params json.RawMessage) (*ToolsCallResult, error) {
	return JSONResult(map[string]json.RawMessage{"echo": params})
}

func testServer() *Server {
	registry := NewRegistry()
	registry.Register(&echoTool{name: "ping"})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(registry, ServerInfo{Name: "kge-test", Version: "0.0.0"}, logger)
}

func TestRegistry_RegisterPanicsOnDuplicateName(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&echoTool{name: "dup"})
	require.Panics(t, func() { registry.Register(&echoTool{name: "dup"}) })
}

func TestRegistry_ListReturnsDefinitionsInRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&echoTool{name: "first"})
	registry.Register(&echoTool{name: "second"})

	defs := registry.List()
	require.Len(t, defs, 2)
	require.Equal(t, "first", defs[0].Name)
	require.Equal(t, "second", defs[1].Name)
}

func TestHandleMessage_InitializeReturnsServerInfo(t *testing.T) {
	s := testServer()
	req := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test-client"}}}`)

	resp := s.handleMessage(context.Background(), req)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(*InitializeResult)
	require.True(t, ok)
	require.Equal(t, "kge-test", result.ServerInfo.Name)
	require.NotNil(t, result.Capabilities.Tools)
}

func TestHandleMessage_NotificationGetsNoResponse(t *testing.T) {
	s := testServer()
	req := []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	require.Nil(t, s.handleMessage(context.Background(), req))
}

func TestHandleMessage_ToolsListIncludesRegisteredTool(t *testing.T) {
	s := testServer()
	req := []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	resp := s.handleMessage(context.Background(), req)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(*ToolsListResult)
	require.True(t, ok)
	require.Len(t, result.Tools, 1)
	require.Equal(t, "ping", result.Tools[0].Name)
}

func TestHandleMessage_ToolsCallUnknownToolReturnsMethodNotFound(t *testing.T) {
	s := testServer()
	req := []byte(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"missing"}}`)

	resp := s.handleMessage(context.Background(), req)
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)
}

func TestHandleMessage_ToolsCallDispatchesToRegisteredTool(t *testing.T) {
	s := testServer()
	req := []byte(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"ping","arguments":{"x":1}}}`)

	resp := s.handleMessage(context.Background(), req)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(*ToolsCallResult)
	require.True(t, ok)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)
}

func TestHandleMessage_UnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := testServer()
	req := []byte(`{"jsonrpc":"2.0","id":5,"method":"not/a/method"}`)

	resp := s.handleMessage(context.Background(), req)
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)
}

func TestHandleMessage_MalformedJSONReturnsParseError(t *testing.T) {
	s := testServer()
	resp := s.handleMessage(context.Background(), []byte(`{not json`))
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrCodeParse, resp.Error.Code)
}
