// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package tool

// Accessors for validated arguments. Validation has already enforced types,
// so these only deal with absent members and JSON's float64 numbers.

// String returns args[key] as a string, or "" when absent.
func String(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// Int returns args[key] as an int, or def when absent.
func Int(args map[string]any, key string, def int) int {
	switch n := args[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return def
}

// Bool returns args[key] as a bool, or def when absent.
func Bool(args map[string]any, key string, def bool) bool {
	if b, ok := args[key].(bool); ok {
		return b
	}
	return def
}
