// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strconv"
	"strings"
)

// coerce walks v alongside the schema document and returns a copy with
// scalar coercions applied, declared defaults filled in and undeclared
// object members removed. Values that cannot be coerced are returned as-is
// so that validation reports them.
func coerce(doc map[string]any, v any) any {
	switch declaredType(doc) {
	case "object":
		return coerceObject(doc, v)
	case "array":
		arr, ok := v.([]any)
		if !ok {
			return v
		}
		items, ok := doc["items"].(map[string]any)
		if !ok {
			return v
		}
		out := make([]any, len(arr))
		for i, elem := range arr {
			out[i] = coerce(items, elem)
		}
		return out
	case "integer", "number":
		if s, ok := v.(string); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f
			}
		}
	case "boolean":
		if s, ok := v.(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true":
				return true
			case "false":
				return false
			}
		}
	case "string":
		switch x := v.(type) {
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(x)
		}
	}
	return v
}

func coerceObject(doc map[string]any, v any) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}

	props, _ := doc["properties"].(map[string]any)
	_, keepUndeclared := doc["additionalProperties"]
	if props == nil {
		keepUndeclared = true
	}

	out := make(map[string]any, len(obj))
	for k, val := range obj {
		propDoc, declared := props[k].(map[string]any)
		if !declared {
			if keepUndeclared {
				out[k] = val
			}
			continue
		}
		out[k] = coerce(propDoc, val)
	}

	for k, p := range props {
		propDoc, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if _, present := out[k]; present {
			continue
		}
		if def, ok := propDoc["default"]; ok {
			out[k] = copyValue(def)
		}
	}
	return out
}

// declaredType returns the single JSON type a document declares, inferring
// "object" from the presence of properties.
func declaredType(doc map[string]any) string {
	switch t := doc["type"].(type) {
	case string:
		return t
	case []any:
		var found string
		for _, x := range t {
			s, _ := x.(string)
			if s == "null" {
				continue
			}
			if found != "" {
				return ""
			}
			found = s
		}
		return found
	}
	if _, ok := doc["properties"]; ok {
		return "object"
	}
	return ""
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = copyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}
