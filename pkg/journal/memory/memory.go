// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/leseb/aws-mcp-gw/pkg/journal"
)

// DefaultCapacity is used when no capacity is configured.
const DefaultCapacity = 1000

func init() {
	journal.Providers.Register("memory", func(_ context.Context, params map[string]string) (journal.Store, error) {
		capacity := DefaultCapacity
		if v := params["capacity"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("memory journal: invalid capacity %q: %w", v, err)
			}
			capacity = n
		}
		return New(capacity), nil
	})
}

// compile-time check
var _ journal.Store = (*Store)(nil)

// Store is a fixed-size ring of the most recent entries.
type Store struct {
	mu      sync.RWMutex
	entries []*journal.Entry
	next    int
	full    bool
}

// New creates a store keeping at most capacity entries.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{entries: make([]*journal.Entry, capacity)}
}

// Record stores a copy of e, evicting the oldest entry when full.
func (s *Store) Record(_ context.Context, e *journal.Entry) error {
	journal.Prepare(e)
	cp := *e

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.next] = &cp
	s.next = (s.next + 1) % len(s.entries)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// Get returns the entry with the given id.
func (s *Store) Get(_ context.Context, id string) (*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e != nil && e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("entry %s: %w", id, journal.ErrNotFound)
}

// List walks the ring from newest to oldest.
func (s *Store) List(_ context.Context, f journal.Filter) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := f.EffectiveLimit()
	count := s.next
	if s.full {
		count = len(s.entries)
	}

	out := make([]*journal.Entry, 0, min(limit, count))
	for i := 1; i <= count && len(out) < limit; i++ {
		e := s.entries[(s.next-i+len(s.entries))%len(s.entries)]
		if !f.Matches(e) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
