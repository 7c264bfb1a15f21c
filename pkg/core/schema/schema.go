// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema validates and coerces untyped JSON arguments against a
// declared JSON Schema.
//
// A Schema is compiled once (draft 2020-12) and is safe for concurrent use.
// Validate never mutates its input: it works on a normalized copy, applies
// per-property coercions and defaults, drops undeclared properties and then
// runs structural validation. On failure it returns a non-empty list of
// path+message issues instead of an error value, so callers can surface the
// list to the client verbatim.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resourceURL is the name under which every document is compiled.
const resourceURL = "schema.json"

// Issue describes a single validation failure. Path is a JSON pointer into
// the validated value ("/" for the value itself).
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// Schema is a compiled JSON Schema document.
type Schema struct {
	raw      []byte
	doc      map[string]any
	compiled *jsonschema.Schema
	strict   bool
}

// Option configures a Schema.
type Option func(*Schema)

// Strict disables coercion, defaults and the removal of undeclared
// properties: values are validated exactly as received.
func Strict() Option {
	return func(s *Schema) { s.strict = true }
}

// New compiles doc. The document is normalized through encoding/json, so
// Go literals (ints, typed slices) are accepted.
func New(doc map[string]any, opts ...Option) (*Schema, error) {
	if doc == nil {
		return nil, errors.New("schema: nil document")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal document: %w", err)
	}

	var normalized map[string]any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("schema: normalize document: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}

	s := &Schema{raw: raw, doc: normalized, compiled: compiled}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for package-level tool
// declarations whose schemas are literals.
func MustNew(doc map[string]any, opts ...Option) *Schema {
	s, err := New(doc, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Document returns a fresh copy of the schema document, suitable for
// advertising as an MCP inputSchema.
func (s *Schema) Document() map[string]any {
	var doc map[string]any
	// raw was produced by json.Marshal in New; it always decodes.
	_ = json.Unmarshal(s.raw, &doc)
	return doc
}

// Validate checks an argument object. A nil map is treated as empty. On
// success the coerced copy is returned; otherwise the issues, sorted by path
// then message.
func (s *Schema) Validate(args map[string]any) (map[string]any, []Issue) {
	if args == nil {
		args = map[string]any{}
	}
	v, issues := s.Check(args)
	if len(issues) > 0 {
		return nil, issues
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, []Issue{{Path: "/", Message: "expected object"}}
	}
	return obj, nil
}

// Check validates an arbitrary JSON value. It is the building block for
// Validate and for checking JSON-RPC params, which need not be objects.
func (s *Schema) Check(v any) (any, []Issue) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, []Issue{{Path: "/", Message: err.Error()}}
	}

	prepared := normalized
	if !s.strict {
		prepared = coerce(s.doc, normalized)
	}
	if err := s.compiled.Validate(prepared); err != nil {
		return nil, issuesFrom(err)
	}
	return prepared, nil
}

// normalize deep-copies v through encoding/json so that every number is a
// float64, every object a map[string]any and every array a []any.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON-serializable: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("value is not JSON-serializable: %v", err)
	}
	return out, nil
}

func issuesFrom(err error) []Issue {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Issue{{Path: "/", Message: err.Error()}}
	}

	var issues []Issue
	collectLeaves(ve, &issues)
	if len(issues) == 0 {
		issues = append(issues, Issue{Path: pointer(ve.InstanceLocation), Message: ve.Message})
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Message < issues[j].Message
	})
	return issues
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			collectLeaves(c, out)
		}
		return
	}

	// Point "missing properties" failures at the missing members rather
	// than at the enclosing object.
	if strings.HasSuffix(ve.KeywordLocation, "/required") {
		if names := missingNames(ve.Message); len(names) > 0 {
			for _, name := range names {
				*out = append(*out, Issue{
					Path:    join(ve.InstanceLocation, name),
					Message: "required property is missing",
				})
			}
			return
		}
	}

	*out = append(*out, Issue{Path: pointer(ve.InstanceLocation), Message: ve.Message})
}

func missingNames(msg string) []string {
	const prefix = "missing properties: "
	if !strings.HasPrefix(msg, prefix) {
		return nil
	}
	var names []string
	for _, part := range strings.Split(strings.TrimPrefix(msg, prefix), ",") {
		name := strings.Trim(strings.TrimSpace(part), `'"`)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func pointer(loc string) string {
	if loc == "" {
		return "/"
	}
	return loc
}

func join(loc, name string) string {
	name = strings.ReplaceAll(name, "~", "~0")
	name = strings.ReplaceAll(name, "/", "~1")
	return loc + "/" + name
}
