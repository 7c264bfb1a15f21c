// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
)

// ClientName is sent as clientInfo.name during initialize.
const ClientName = "awsmcpctl"

// RPCError is a JSON-RPC error returned by the server.
type RPCError struct {
	Method string
	JSONRPCError
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client is a stateless MCP client that communicates over HTTP using JSON-RPC 2.0.
type Client struct {
	httpClient *http.Client
	serverURL  string
	version    string
	sessionID  string
	nextID     atomic.Int64
}

// NewClient creates a new MCP client targeting the given server URL.
// A nil httpClient uses http.DefaultClient.
func NewClient(serverURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		serverURL:  serverURL,
		version:    "1.0.0",
	}
}

// Initialize performs the MCP initialize handshake, stores the session ID
// when the server sets one, and sends notifications/initialized.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	params := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo: ClientInfo{
			Name:    ClientName,
			Version: c.version,
		},
		Capabilities: map[string]any{},
	}

	raw, headers, err := c.callWithHeaders(ctx, MethodInitialize, params)
	if err != nil {
		return nil, fmt.Errorf("mcp initialize: %w", err)
	}

	if sid := headers.Get("Mcp-Session-Id"); sid != "" {
		c.sessionID = sid
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("mcp initialize: unmarshal result: %w", err)
	}

	if err := c.notify(ctx, "notifications/initialized"); err != nil {
		return nil, fmt.Errorf("mcp initialized notification: %w", err)
	}

	return &result, nil
}

// ListTools returns the tools exposed by the MCP server.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	raw, err := c.call(ctx, MethodToolsList, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp tools/list: %w", err)
	}

	var result ToolsListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("mcp tools/list: unmarshal result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a tool on the MCP server. A tool that fails comes back
// as a result with IsError set, not as an error.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	params := ToolCallParams{
		Name:      name,
		Arguments: args,
	}

	raw, err := c.call(ctx, MethodToolsCall, params)
	if err != nil {
		return nil, fmt.Errorf("mcp tools/call %s: %w", name, err)
	}

	result, err := parseToolCallResult(raw)
	if err != nil {
		return nil, fmt.Errorf("mcp tools/call %s: unmarshal result: %w", name, err)
	}
	return result, nil
}

// call sends a JSON-RPC request and returns the result.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	raw, _, err := c.callWithHeaders(ctx, method, params)
	return raw, err
}

// callWithHeaders sends a JSON-RPC request and returns the result along with response headers.
func (c *Client) callWithHeaders(ctx context.Context, method string, params any) (json.RawMessage, http.Header, error) {
	id := strconv.FormatInt(c.nextID.Add(1), 10)
	body, err := json.Marshal(JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		ID:      json.RawMessage(id),
		Params:  params,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	httpResp, err := c.post(ctx, body)
	if err != nil {
		return nil, nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, nil, fmt.Errorf("http status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// Plain JSON, or SSE when the server speaks streamable-http.
	ct := httpResp.Header.Get("Content-Type")
	var respBody []byte
	if strings.HasPrefix(ct, "text/event-stream") {
		respBody, err = extractSSEData(httpResp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("parse SSE response: %w", err)
		}
	} else {
		respBody, err = io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("read response: %w", err)
		}
	}

	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, nil, &RPCError{Method: method, JSONRPCError: *rpcResp.Error}
	}
	if string(rpcResp.ID) != id {
		return nil, nil, fmt.Errorf("response id %s does not match request id %s", rpcResp.ID, id)
	}

	return rpcResp.Result, httpResp.Header, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if c.sessionID != "" {
		httpReq.Header.Set("Mcp-Session-Id", c.sessionID)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	return httpResp, nil
}

// extractSSEData reads an SSE stream and returns the data from the first
// "message" event: "event: message\ndata: {json}\n\n".
func extractSSEData(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			return []byte(strings.TrimPrefix(line, "data: ")), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("no data line found in SSE stream")
}

// notify sends a JSON-RPC notification. Servers answer with 202 or 204 and
// no body; any other 2xx is accepted too.
func (c *Client) notify(ctx context.Context, method string) error {
	body, err := json.Marshal(JSONRPCRequest{JSONRPC: JSONRPCVersion, Method: method})
	if err != nil {
		return err
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("http status %d", resp.StatusCode)
	}
	return nil
}
