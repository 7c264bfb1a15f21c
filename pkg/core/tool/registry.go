// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package tool

// Registry is an ordered, read-only collection of tools indexed by name.
// It is built once at startup and shared by reference; all methods are
// safe for concurrent use because nothing mutates it after NewRegistry.
//
// Name collisions are resolved first-registered-wins: later tools with an
// already taken name are left out of both Find and List, and their names
// are reported by Shadowed.
type Registry struct {
	tools    []Tool
	index    map[string]int
	shadowed []string
}

// NewRegistry builds a registry from tools in the given order.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{
		tools: make([]Tool, 0, len(tools)),
		index: make(map[string]int, len(tools)),
	}
	for _, t := range tools {
		if _, taken := r.index[t.Name]; taken {
			r.shadowed = append(r.shadowed, t.Name)
			continue
		}
		r.index[t.Name] = len(r.tools)
		r.tools = append(r.tools, t)
	}
	return r
}

// Find returns the tool registered under name.
func (r *Registry) Find(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// List returns the registered tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Len returns the number of distinct tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Shadowed returns the names of tools that were dropped because an earlier
// tool already used the name.
func (r *Registry) Shadowed() []string {
	out := make([]string, len(r.shadowed))
	copy(out, r.shadowed)
	return out
}
