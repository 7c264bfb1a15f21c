// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/leseb/aws-mcp-gw/pkg/core/schema"
	"github.com/leseb/aws-mcp-gw/pkg/mcp"
)

// FormatValue wraps a tool's return value in a single text block. Strings
// are used verbatim; anything else is encoded as indented JSON. A value that
// cannot be encoded turns into a tool-level error.
func FormatValue(v any) mcp.ToolCallResult {
	if s, ok := v.(string); ok {
		return textResult(s, false)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return FormatError(fmt.Errorf("encode tool result: %w", err))
	}
	return textResult(string(data), false)
}

// FormatError reports a failed tool run. The text is the error message
// verbatim, never a JSON encoding of the error value.
func FormatError(err error) mcp.ToolCallResult {
	if err == nil {
		return textResult("unknown error", true)
	}
	return textResult(err.Error(), true)
}

// FormatIssues reports rejected arguments as a JSON array of issues.
func FormatIssues(issues []schema.Issue) mcp.ToolCallResult {
	if issues == nil {
		issues = []schema.Issue{}
	}
	// Issue holds only strings; encoding cannot fail.
	data, _ := json.Marshal(issues)
	return textResult(string(data), true)
}

func textResult(text string, isError bool) mcp.ToolCallResult {
	return mcp.ToolCallResult{
		Content: []mcp.ContentBlock{mcp.TextContent(text)},
		IsError: isError,
	}
}
