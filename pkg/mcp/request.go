// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/leseb/aws-mcp-gw/pkg/core/schema"
)

// Request is one of *InitializeRequest, *ListToolsRequest, *CallToolRequest
// or *Notification.
type Request interface {
	// RequestID is the raw id to echo; nil for notifications.
	RequestID() json.RawMessage
	MethodName() string
	isRequest()
}

// InitializeRequest is a validated "initialize" call.
type InitializeRequest struct {
	ID     json.RawMessage
	Params InitializeParams
}

// ListToolsRequest is a validated "tools/list" call.
type ListToolsRequest struct {
	ID json.RawMessage
}

// CallToolRequest is a validated "tools/call" call. Absent or null
// arguments become an empty object. Arguments of any other non-object shape
// leave Params.Arguments nil and are reported by ArgumentsError, so that the
// caller can resolve the tool first.
type CallToolRequest struct {
	ID     json.RawMessage
	Params ToolCallParams

	argsErr *ParseError
}

// ArgumentsError returns the invalid-params error for non-object
// arguments, or nil.
func (r *CallToolRequest) ArgumentsError() *ParseError { return r.argsErr }

// Notification is any message without an id member. It must never be
// answered, whatever its method or shape.
type Notification struct {
	Method string
}

func (r *InitializeRequest) RequestID() json.RawMessage { return r.ID }
func (r *InitializeRequest) MethodName() string         { return MethodInitialize }
func (*InitializeRequest) isRequest()                   {}

func (r *ListToolsRequest) RequestID() json.RawMessage { return r.ID }
func (r *ListToolsRequest) MethodName() string         { return MethodToolsList }
func (*ListToolsRequest) isRequest()                   {}

func (r *CallToolRequest) RequestID() json.RawMessage { return r.ID }
func (r *CallToolRequest) MethodName() string         { return MethodToolsCall }
func (*CallToolRequest) isRequest()                   {}

func (*Notification) RequestID() json.RawMessage { return nil }
func (n *Notification) MethodName() string       { return n.Method }
func (*Notification) isRequest()                 {}

// Params shapes, checked without coercion.
var (
	initializeParamsSchema = schema.MustNew(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"protocolVersion": map[string]any{"type": "string"},
			"capabilities":    map[string]any{"type": "object"},
			"clientInfo": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":    map[string]any{"type": "string"},
					"version": map[string]any{"type": "string"},
				},
				"required": []string{"name", "version"},
			},
		},
		"required": []string{"protocolVersion", "capabilities", "clientInfo"},
	}, schema.Strict())

	listToolsParamsSchema = schema.MustNew(map[string]any{
		"type": "object",
	}, schema.Strict())

	callToolParamsSchema = schema.MustNew(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":      map[string]any{"type": "string"},
			"arguments": map[string]any{},
		},
		"required": []string{"name"},
	}, schema.Strict())
)

// Parse validates a single JSON-RPC message against the supported request
// shapes. A message without an id is returned as a *Notification no matter
// what else it contains. Any other failure is a *ParseError.
func Parse(raw []byte) (Request, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Kind: KindInvalidRequest, Reason: "message must be a JSON object"}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, &ParseError{Kind: KindInvalidRequest, Reason: err.Error()}
	}

	method, methodOK := decodeString(envelope["method"])

	rawID, hasID := envelope["id"]
	if !hasID {
		return &Notification{Method: method}, nil
	}
	id := compact(rawID)

	if !methodOK {
		return nil, &ParseError{Kind: KindInvalidRequest, ID: id, Reason: `"method" must be a string`}
	}

	if version, _ := decodeString(envelope["jsonrpc"]); version != JSONRPCVersion {
		return nil, &ParseError{
			Kind:   KindUnsupportedVersion,
			ID:     id,
			Method: method,
			Reason: fmt.Sprintf(`"jsonrpc" must be %q, got %s`, JSONRPCVersion, describe(envelope["jsonrpc"])),
		}
	}

	if !validID(id) {
		return nil, &ParseError{
			Kind:   KindInvalidID,
			ID:     id,
			Method: method,
			Reason: fmt.Sprintf(`"id" must be a string or a number, got %s`, id),
		}
	}

	rawParams, hasParams := envelope["params"]
	if hasParams && bytes.Equal(bytes.TrimSpace(rawParams), []byte("null")) {
		hasParams = false
	}

	switch method {
	case MethodInitialize:
		req := &InitializeRequest{ID: id}
		if err := decodeParams(id, method, initializeParamsSchema, rawParams, hasParams, true, &req.Params); err != nil {
			return nil, err
		}
		return req, nil

	case MethodToolsList:
		var ignored map[string]any
		if err := decodeParams(id, method, listToolsParamsSchema, rawParams, hasParams, false, &ignored); err != nil {
			return nil, err
		}
		return &ListToolsRequest{ID: id}, nil

	case MethodToolsCall:
		var params struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := decodeParams(id, method, callToolParamsSchema, rawParams, hasParams, true, &params); err != nil {
			return nil, err
		}
		req := &CallToolRequest{ID: id, Params: ToolCallParams{Name: params.Name}}
		req.Params.Arguments, req.argsErr = decodeArguments(id, params.Arguments)
		return req, nil

	default:
		return nil, &ParseError{
			Kind:   KindUnknownMethod,
			ID:     id,
			Method: method,
			Reason: fmt.Sprintf("unsupported method %q", method),
		}
	}
}

func decodeParams(id json.RawMessage, method string, s *schema.Schema, raw json.RawMessage, present, required bool, dst any) *ParseError {
	if !present {
		if required {
			return &ParseError{
				Kind:   KindInvalidParams,
				ID:     id,
				Method: method,
				Reason: "params are required",
				Issues: []schema.Issue{{Path: "/", Message: "params are required"}},
			}
		}
		return nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return &ParseError{Kind: KindInvalidParams, ID: id, Method: method, Reason: err.Error()}
	}
	if _, issues := s.Check(value); len(issues) > 0 {
		return &ParseError{
			Kind:   KindInvalidParams,
			ID:     id,
			Method: method,
			Reason: issues[0].String(),
			Issues: issues,
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &ParseError{Kind: KindInvalidParams, ID: id, Method: method, Reason: err.Error()}
	}
	return nil
}

// decodeArguments returns the arguments object. Absent and null arguments
// are an empty object.
func decodeArguments(id, raw json.RawMessage) (map[string]any, *ParseError) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	if raw[0] != '{' {
		reason := fmt.Sprintf(`"arguments" must be an object, got %s`, raw)
		return nil, &ParseError{
			Kind:   KindInvalidParams,
			ID:     id,
			Method: MethodToolsCall,
			Reason: reason,
			Issues: []schema.Issue{{Path: "/arguments", Message: "must be an object"}},
		}
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &ParseError{Kind: KindInvalidParams, ID: id, Method: MethodToolsCall, Reason: err.Error()}
	}
	return args, nil
}

// decodeString reports whether raw is a JSON string and returns it.
func decodeString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func validID(id json.RawMessage) bool {
	if len(id) == 0 {
		return false
	}
	switch c := id[0]; {
	case c == '"':
		return true
	case c == '-' || (c >= '0' && c <= '9'):
		return true
	}
	return false
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return append(json.RawMessage(nil), raw...)
	}
	return json.RawMessage(buf.Bytes())
}

func describe(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "nothing"
	}
	return string(raw)
}
