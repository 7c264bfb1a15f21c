// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"encoding/json"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// ProtocolVersion is the MCP revision advertised by initialize.
const ProtocolVersion = "2025-06-18"

// JSONRPCVersion is the only accepted value of the "jsonrpc" member.
const JSONRPCVersion = mcpgo.JSONRPC_VERSION

// Method names of the three supported request shapes.
const (
	MethodInitialize = string(mcpgo.MethodInitialize)
	MethodToolsList  = string(mcpgo.MethodToolsList)
	MethodToolsCall  = string(mcpgo.MethodToolsCall)
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = mcpgo.PARSE_ERROR
	CodeInvalidRequest = mcpgo.INVALID_REQUEST
	CodeMethodNotFound = mcpgo.METHOD_NOT_FOUND
	CodeInvalidParams  = mcpgo.INVALID_PARAMS
	CodeInternalError  = mcpgo.INTERNAL_ERROR
)

// JSONRPCRequest is a JSON-RPC 2.0 request envelope as sent by the client.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      json.RawMessage `json:"id,omitempty"`
	Params  any             `json:"params,omitempty"`
}

// JSONRPCResponse is a JSON-RPC 2.0 response envelope. ID is kept raw so
// that the request id is echoed byte-for-byte; a nil ID encodes as null.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// InitializeParams is the params for the "initialize" method.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

// ClientInfo identifies the client or server.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result of the "initialize" method.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ClientInfo     `json:"serverInfo"`
}

// ToolsListResult is the result of "tools/list".
type ToolsListResult struct {
	Tools []ToolInfo `json:"tools"`
}

// ToolInfo describes a single tool exposed by an MCP server.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolCallParams is the params for "tools/call".
type ToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolCallResult is the result of "tools/call". A failed tool is reported
// here with IsError set, never as a JSON-RPC error.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is a content element in a tool call result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextContent returns a single "text" content block.
func TextContent(text string) ContentBlock {
	c := mcpgo.NewTextContent(text)
	return ContentBlock{Type: c.Type, Text: c.Text}
}

// Text returns the text of the first content block, or "" when empty.
func (r ToolCallResult) Text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// parseToolCallResult decodes a tools/call result. Content blocks other than
// text are kept with their type and an empty text.
func parseToolCallResult(raw json.RawMessage) (*ToolCallResult, error) {
	wire, err := mcpgo.ParseCallToolResult(&raw)
	if err != nil {
		return nil, err
	}
	result := &ToolCallResult{
		Content: make([]ContentBlock, 0, len(wire.Content)),
		IsError: wire.IsError,
	}
	for _, c := range wire.Content {
		if text, ok := mcpgo.AsTextContent(c); ok {
			result.Content = append(result.Content, ContentBlock{Type: text.Type, Text: text.Text})
			continue
		}
		result.Content = append(result.Content, ContentBlock{Type: contentType(c)})
	}
	return result, nil
}

func contentType(c mcpgo.Content) string {
	switch c.(type) {
	case mcpgo.ImageContent:
		return mcpgo.ContentTypeImage
	case mcpgo.AudioContent:
		return mcpgo.ContentTypeAudio
	case mcpgo.ResourceLink:
		return mcpgo.ContentTypeLink
	case mcpgo.EmbeddedResource:
		return mcpgo.ContentTypeResource
	}
	return ""
}
