// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package mcp_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/leseb/aws-mcp-gw/pkg/adapters/http"
	"github.com/leseb/aws-mcp-gw/pkg/core/dispatch"
	"github.com/leseb/aws-mcp-gw/pkg/core/schema"
	"github.com/leseb/aws-mcp-gw/pkg/core/tool"
	"github.com/leseb/aws-mcp-gw/pkg/mcp"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := tool.NewRegistry(
		tool.Tool{
			Name:        "hello",
			Description: "Say hello",
			Args: schema.MustNew(map[string]any{
				"type":       "object",
				"properties": map[string]any{"name": map[string]any{"type": "string"}},
				"required":   []string{"name"},
			}),
			Run: func(_ context.Context, args map[string]any) (any, error) {
				return "hello " + tool.String(args, "name"), nil
			},
		},
		tool.Tool{
			Name: "broken",
			Run: func(context.Context, map[string]any) (any, error) {
				return nil, errors.New("S3 NoSuchBucket: gone")
			},
		},
	)
	srv := httptest.NewServer(httpadapter.New(dispatch.New(reg, dispatch.Options{}), nil, httpadapter.Options{}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RoundTrip(t *testing.T) {
	srv := newServer(t)
	c := mcp.NewClient(srv.URL+"/mcp", srv.Client())
	ctx := context.Background()

	init, err := c.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if init.ServerInfo.Name != "aws-mcp-gw" || init.ProtocolVersion != mcp.ProtocolVersion {
		t.Errorf("initialize result = %+v", init)
	}

	tools, err := c.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 2 || tools[0].Name != "hello" {
		t.Errorf("tools = %+v", tools)
	}

	result, err := c.CallTool(ctx, "hello", map[string]any{"name": "world"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError || result.Text() != "hello world" {
		t.Errorf("result = %+v", result)
	}

	result, err = c.CallTool(ctx, "broken", nil)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError || result.Text() != "S3 NoSuchBucket: gone" {
		t.Errorf("result = %+v", result)
	}
}

func TestClient_ToolNotFound(t *testing.T) {
	srv := newServer(t)
	c := mcp.NewClient(srv.URL+"/mcp", srv.Client())

	_, err := c.CallTool(context.Background(), "missing", nil)
	var rpcErr *mcp.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error = %v, want *mcp.RPCError", err)
	}
	if rpcErr.Code != mcp.CodeMethodNotFound || rpcErr.Message != "Tool not found: missing" {
		t.Errorf("rpc error = %+v", rpcErr)
	}
}

func TestClient_SSEResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"tools\":[{\"name\":\"x\",\"description\":\"\",\"inputSchema\":{}}]}}\n\n"))
	}))
	defer srv.Close()

	tools, err := mcp.NewClient(srv.URL, srv.Client()).ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "x" {
		t.Errorf("tools = %+v", tools)
	}
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := mcp.NewClient(srv.URL, srv.Client()).ListTools(context.Background())
	if err == nil || !strings.Contains(err.Error(), "http status 502: nope") {
		t.Errorf("error = %v", err)
	}
}
