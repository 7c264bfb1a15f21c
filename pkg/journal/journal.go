// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal keeps a history of tool invocations.
//
// Backends self-register with Providers; blank-import the ones the binary
// should offer:
//
//	import _ "github.com/leseb/aws-mcp-gw/pkg/journal/memory"
//	import _ "github.com/leseb/aws-mcp-gw/pkg/journal/sqlite"
//	import _ "github.com/leseb/aws-mcp-gw/pkg/journal/postgres"
//	import _ "github.com/leseb/aws-mcp-gw/pkg/journal/redis"
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/leseb/aws-mcp-gw/pkg/provider"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("journal entry not found")

// Providers is the registry of journal backends.
var Providers = provider.NewRegistry[Store]("journal")

const (
	// DefaultLimit applies when a Filter has no positive Limit.
	DefaultLimit = 50
	// MaxLimit caps Filter.Limit.
	MaxLimit = 500
)

// Entry is one recorded tool invocation.
type Entry struct {
	ID        string         `json:"id"`
	Tool      string         `json:"tool"`
	RequestID string         `json:"request_id"`
	Arguments map[string]any `json:"arguments"`
	Outcome   string         `json:"outcome"`
	Message   string         `json:"message,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration_ns"`
}

// Failed reports whether the invocation did not succeed.
func (e *Entry) Failed() bool {
	return e.Outcome != "success"
}

// Filter selects entries for List.
type Filter struct {
	Tool       string
	ErrorsOnly bool
	Limit      int
}

// Matches reports whether e passes the filter, ignoring Limit.
func (f Filter) Matches(e *Entry) bool {
	if f.Tool != "" && e.Tool != f.Tool {
		return false
	}
	if f.ErrorsOnly && !e.Failed() {
		return false
	}
	return true
}

// EffectiveLimit clamps Limit to [1, MaxLimit], defaulting to DefaultLimit.
func (f Filter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

// Store persists entries. List returns the newest entries first.
type Store interface {
	Record(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, f Filter) ([]*Entry, error)
	Close() error
}

// Prepare fills the ID and StartedAt of e when unset. Backends call it from
// Record.
func Prepare(e *Entry) {
	if e.ID == "" {
		e.ID = "call_" + uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	if e.Arguments == nil {
		e.Arguments = map[string]any{}
	}
}
