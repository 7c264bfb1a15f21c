// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package tool defines the contract every MCP tool implements and the
// immutable registry the dispatcher resolves tool names against.
package tool

import (
	"context"

	"github.com/leseb/aws-mcp-gw/pkg/core/schema"
)

// RunFunc executes a tool. args is nil for tools without a schema and the
// validated, coerced argument object otherwise. The returned value must be
// JSON-serializable; a string is passed to the client verbatim.
type RunFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool is a named, described, optionally schema-checked operation.
type Tool struct {
	Name        string
	Description string
	// Args is nil when the tool takes no arguments.
	Args *schema.Schema
	Run  RunFunc
}

// emptyInputSchema is advertised for tools that take no arguments.
func emptyInputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// InputSchema returns the JSON Schema advertised in tools/list.
func (t Tool) InputSchema() map[string]any {
	if t.Args == nil {
		return emptyInputSchema()
	}
	return t.Args.Document()
}
