// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider implements a generic registry of named factories.
//
// Pluggable parts of the gateway (journal backends, AWS toolsets) create a
// typed Registry and their implementations self-register from init(), the
// same way database/sql drivers do: blank-import the package to make the
// name available, then build an instance with Registry.New(name, params).
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory builds an instance from a string parameter map. Implementations
// read the keys they understand and ignore the rest.
type Factory[T any] func(ctx context.Context, params map[string]string) (T, error)

// Registry is a concurrency-safe set of named factories producing T.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates an empty Registry. kind names what is being built
// ("journal", "toolset") and only appears in error messages.
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a named factory. Registering a name twice is a programming
// error and panics at startup.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f == nil {
		panic(fmt.Sprintf("provider: nil %s factory %q", r.kind, name))
	}
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("provider: %s %q already registered", r.kind, name))
	}
	r.factories[name] = f
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// New builds the instance registered under name.
func (r *Registry[T]) New(ctx context.Context, name string, params map[string]string) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s %q (available: %v)", r.kind, name, r.Available())
	}
	return f(ctx, params)
}

// Available returns the registered names, sorted.
func (r *Registry[T]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
