// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"testing"

	"github.com/leseb/aws-mcp-gw/pkg/core/schema"
)

func namedTool(name, description string) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Run: func(_ context.Context, _ map[string]any) (any, error) {
			return description, nil
		},
	}
}

func TestRegistry_FindAndList(t *testing.T) {
	r := NewRegistry(namedTool("b", "bravo"), namedTool("a", "alpha"))

	got, ok := r.Find("a")
	if !ok {
		t.Fatal("expected to find tool a")
	}
	if got.Description != "alpha" {
		t.Errorf("description = %q, want alpha", got.Description)
	}

	list := r.List()
	if len(list) != 2 || list[0].Name != "b" || list[1].Name != "a" {
		t.Errorf("List() order = %v, want registration order [b a]", names(list))
	}
}

func TestRegistry_ExactMatch(t *testing.T) {
	r := NewRegistry(namedTool("aws_s3_list_buckets", ""))

	for _, name := range []string{"AWS_S3_LIST_BUCKETS", "aws_s3_list_buckets ", "aws_s3", ""} {
		if _, ok := r.Find(name); ok {
			t.Errorf("Find(%q) should miss", name)
		}
	}
}

func TestRegistry_FirstRegisteredWins(t *testing.T) {
	r := NewRegistry(namedTool("dup", "first"), namedTool("other", ""), namedTool("dup", "second"))

	got, _ := r.Find("dup")
	if got.Description != "first" {
		t.Errorf("Find(dup) = %q, want first", got.Description)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	shadowed := r.Shadowed()
	if len(shadowed) != 1 || shadowed[0] != "dup" {
		t.Errorf("Shadowed() = %v, want [dup]", shadowed)
	}
}

func TestRegistry_ListIsACopy(t *testing.T) {
	r := NewRegistry(namedTool("a", ""))

	list := r.List()
	list[0].Name = "mutated"
	if _, ok := r.Find("a"); !ok {
		t.Error("mutating List() result must not affect the registry")
	}
	if r.List()[0].Name != "a" {
		t.Error("registry contents changed")
	}
}

func TestTool_InputSchema(t *testing.T) {
	noArgs := namedTool("x", "")
	doc := noArgs.InputSchema()
	if doc["type"] != "object" {
		t.Errorf("schema-less tool type = %v, want object", doc["type"])
	}

	withArgs := Tool{
		Name: "y",
		Args: schema.MustNew(map[string]any{
			"type":       "object",
			"properties": map[string]any{"bucket": map[string]any{"type": "string"}},
			"required":   []string{"bucket"},
		}),
	}
	doc = withArgs.InputSchema()
	props, ok := doc["properties"].(map[string]any)
	if !ok || props["bucket"] == nil {
		t.Errorf("inputSchema = %v, want bucket property", doc)
	}
}

func TestArgs(t *testing.T) {
	args := map[string]any{"s": "v", "n": float64(7), "b": true}

	if String(args, "s") != "v" || String(args, "missing") != "" {
		t.Error("String accessor")
	}
	if Int(args, "n", 1) != 7 || Int(args, "missing", 3) != 3 {
		t.Error("Int accessor")
	}
	if !Bool(args, "b", false) || !Bool(args, "missing", true) {
		t.Error("Bool accessor")
	}
	if String(nil, "s") != "" || Int(nil, "n", 2) != 2 {
		t.Error("accessors must tolerate nil args")
	}
}

func names(tools []Tool) []string {
	out := make([]string, len(tools))
	for i, t := range tools {
		out[i] = t.Name
	}
	return out
}
