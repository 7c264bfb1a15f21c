// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/leseb/aws-mcp-gw/pkg/journal"
	"github.com/leseb/aws-mcp-gw/pkg/journal/journaltest"
	"github.com/leseb/aws-mcp-gw/pkg/journal/redis"
)

// newStore needs a disposable Redis:
//
//	JOURNAL_REDIS_URL=redis://localhost:6379/15 go test ./pkg/journal/redis/
func newStore(t *testing.T, capacity int) *redis.Store {
	t.Helper()
	url := os.Getenv("JOURNAL_REDIS_URL")
	if url == "" {
		t.Skip("JOURNAL_REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := redis.New(ctx, redis.Options{
		URL:      url,
		Prefix:   "aws-mcp-gw-test:" + uuid.NewString(),
		Capacity: capacity,
	})
	if err != nil {
		t.Fatalf("redis.New: %v", err)
	}
	t.Cleanup(func() {
		store.Truncate(context.Background())
	})
	return store
}

func TestRedisConformance(t *testing.T) {
	journaltest.RunConformanceTests(t, func(t *testing.T) journal.Store {
		return newStore(t, 0)
	})
}

func TestRedis_Capacity(t *testing.T) {
	store := newStore(t, 2)
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	var first string
	for i, tool := range []string{"a", "b", "c"} {
		e := &journal.Entry{Tool: tool, Outcome: "success", StartedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if i == 0 {
			first = e.ID
		}
	}

	got, err := store.List(ctx, journal.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Tool != "c" || got[1].Tool != "b" {
		t.Errorf("List after trim = %+v", got)
	}
	if _, err := store.Get(ctx, first); err != journal.ErrNotFound {
		t.Errorf("Get(trimmed) error = %v, want ErrNotFound", err)
	}
}

func TestRedis_SameStartTimeKeepsInsertionOrder(t *testing.T) {
	store := newStore(t, 0)
	defer store.Close()
	ctx := context.Background()

	at := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	for _, tool := range []string{"a", "b", "c"} {
		if err := store.Record(ctx, &journal.Entry{Tool: tool, Outcome: "success", StartedAt: at}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := store.List(ctx, journal.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 || got[0].Tool != "c" || got[2].Tool != "a" {
		t.Errorf("List order = %+v, want newest insert first", got)
	}
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		opts redis.Options
	}{
		{name: "missing url", opts: redis.Options{}},
		{name: "bad scheme", opts: redis.Options{URL: "http://localhost:6379"}},
		{name: "negative capacity", opts: redis.Options{URL: "redis://localhost:6379", Capacity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := redis.New(ctx, tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
