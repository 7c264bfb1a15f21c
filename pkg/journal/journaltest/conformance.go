// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package journaltest provides a shared conformance test suite for
// journal.Store implementations. Each backend should call
// RunConformanceTests from its own _test.go file.
package journaltest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/leseb/aws-mcp-gw/pkg/journal"
)

var base = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

func entry(tool, outcome string, offset int) *journal.Entry {
	return &journal.Entry{
		Tool:      tool,
		RequestID: "1",
		Arguments: map[string]any{"bucket": "logs"},
		Outcome:   outcome,
		StartedAt: base.Add(time.Duration(offset) * time.Second),
		Duration:  15 * time.Millisecond,
	}
}

// RunConformanceTests exercises a Store implementation against the shared
// contract. newStore is called once per sub-test and must return an empty
// store.
func RunConformanceTests(t *testing.T, newStore func(t *testing.T) journal.Store) {
	t.Helper()

	t.Run("RecordAndGet", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()
		ctx := context.Background()

		e := &journal.Entry{
			Tool:      "aws_s3_list_objects",
			RequestID: `"req-1"`,
			Arguments: map[string]any{"bucket": "logs", "max_keys": float64(10)},
			Outcome:   "tool_error",
			Message:   "S3 NoSuchBucket: The specified bucket does not exist",
			StartedAt: base,
			Duration:  250 * time.Millisecond,
		}
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if e.ID == "" {
			t.Fatal("Record did not assign an id")
		}

		got, err := store.Get(ctx, e.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Tool != e.Tool || got.RequestID != e.RequestID || got.Outcome != e.Outcome ||
			got.Message != e.Message || got.Duration != e.Duration {
			t.Errorf("Get returned %+v, want %+v", got, e)
		}
		if !got.StartedAt.Equal(e.StartedAt) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, e.StartedAt)
		}
		if !reflect.DeepEqual(got.Arguments, e.Arguments) {
			t.Errorf("Arguments = %v, want %v", got.Arguments, e.Arguments)
		}
		if !got.Failed() {
			t.Error("tool_error entry should report Failed")
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := store.Get(context.Background(), "call_missing")
		if !errors.Is(err, journal.ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()
		ctx := context.Background()

		for i, tool := range []string{"a", "b", "c"} {
			if err := store.Record(ctx, entry(tool, "success", i)); err != nil {
				t.Fatalf("Record: %v", err)
			}
		}

		got, err := store.List(ctx, journal.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 3 || got[0].Tool != "c" || got[1].Tool != "b" || got[2].Tool != "a" {
			t.Errorf("List order = %v, want [c b a]", tools(got))
		}
	})

	t.Run("ListFilters", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()
		ctx := context.Background()

		records := []*journal.Entry{
			entry("aws_s3_list_buckets", "success", 0),
			entry("aws_s3_get_object", "tool_error", 1),
			entry("aws_s3_list_buckets", "invalid_arguments", 2),
			entry("aws_sts_get_caller_identity", "success", 3),
		}
		for _, e := range records {
			if err := store.Record(ctx, e); err != nil {
				t.Fatalf("Record: %v", err)
			}
		}

		byTool, err := store.List(ctx, journal.Filter{Tool: "aws_s3_list_buckets"})
		if err != nil {
			t.Fatalf("List(tool): %v", err)
		}
		if len(byTool) != 2 {
			t.Errorf("List(tool) = %v, want 2 entries", tools(byTool))
		}

		failed, err := store.List(ctx, journal.Filter{ErrorsOnly: true})
		if err != nil {
			t.Fatalf("List(errors): %v", err)
		}
		if len(failed) != 2 || failed[0].Outcome != "invalid_arguments" || failed[1].Outcome != "tool_error" {
			t.Errorf("List(errors) = %v, want the two failures newest first", tools(failed))
		}

		both, err := store.List(ctx, journal.Filter{Tool: "aws_s3_list_buckets", ErrorsOnly: true})
		if err != nil {
			t.Fatalf("List(tool, errors): %v", err)
		}
		if len(both) != 1 {
			t.Errorf("List(tool, errors) = %v, want 1 entry", tools(both))
		}
	})

	t.Run("ListLimit", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			if err := store.Record(ctx, entry("t", "success", i)); err != nil {
				t.Fatalf("Record: %v", err)
			}
		}

		got, err := store.List(ctx, journal.Filter{Limit: 2})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("List(limit 2) returned %d entries", len(got))
		}
		if !got[0].StartedAt.Equal(base.Add(4 * time.Second)) {
			t.Errorf("first entry started at %v, want the newest", got[0].StartedAt)
		}
	})

	t.Run("ListEmpty", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		got, err := store.List(context.Background(), journal.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("List on empty store = %v", tools(got))
		}
	})
}

func tools(entries []*journal.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Tool
	}
	return out
}
