// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package redis stores the journal in Redis: entries in a hash keyed by id
// and an index sorted set scored by start time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/leseb/aws-mcp-gw/pkg/journal"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "aws-mcp-gw:calls"

// listBatch is how many index members List reads per round trip.
const listBatch = 100

func init() {
	journal.Providers.Register("redis", func(ctx context.Context, params map[string]string) (journal.Store, error) {
		opts := Options{URL: params["dsn"], Prefix: params["prefix"]}
		if v := params["capacity"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("redis journal: invalid capacity %q: %w", v, err)
			}
			opts.Capacity = n
		}
		return New(ctx, opts)
	})
}

// compile-time check
var _ journal.Store = (*Store)(nil)

// Options configures the Redis journal.
type Options struct {
	URL    string // e.g. "redis://localhost:6379/0"
	Prefix string
	// Capacity trims the oldest entries beyond this count; 0 keeps all.
	Capacity int
}

// Store implements journal.Store on Redis.
type Store struct {
	client   *goredis.Client
	capacity int

	seqKey     string
	entriesKey string
	indexKey   string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.URL == "" {
		return nil, errors.New("redis journal: dsn is required")
	}
	redisOpts, err := goredis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("redis journal: parse url: %w", err)
	}
	if opts.Capacity < 0 {
		return nil, fmt.Errorf("redis journal: invalid capacity %d", opts.Capacity)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	client := goredis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis journal: ping: %w", err)
	}

	return &Store{
		client:     client,
		capacity:   opts.Capacity,
		seqKey:     prefix + ":seq",
		entriesKey: prefix + ":entries",
		indexKey:   prefix + ":index",
	}, nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Truncate deletes every key of the store. Used by tests.
func (s *Store) Truncate(ctx context.Context) error {
	return s.client.Del(ctx, s.seqKey, s.entriesKey, s.indexKey).Err()
}

// indexMember orders entries that share a start time by insertion: members
// with equal scores sort lexicographically.
func indexMember(seq int64, id string) string {
	return fmt.Sprintf("%020d:%s", seq, id)
}

func memberID(member string) string {
	_, id, _ := strings.Cut(member, ":")
	return id
}

// Record stores e and trims the index to the configured capacity.
func (s *Store) Record(ctx context.Context, e *journal.Entry) error {
	journal.Prepare(e)

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis journal: marshal entry: %w", err)
	}
	seq, err := s.client.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return fmt.Errorf("redis journal: next sequence: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, s.entriesKey, e.ID, data)
		pipe.ZAdd(ctx, s.indexKey, goredis.Z{
			// Microseconds stay exact in a float64 score.
			Score:  float64(e.StartedAt.UnixMicro()),
			Member: indexMember(seq, e.ID),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis journal: record %s: %w", e.ID, err)
	}

	if s.capacity > 0 {
		return s.trim(ctx)
	}
	return nil
}

func (s *Store) trim(ctx context.Context) error {
	n, err := s.client.ZCard(ctx, s.indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis journal: count: %w", err)
	}
	excess := n - int64(s.capacity)
	if excess <= 0 {
		return nil
	}

	oldest, err := s.client.ZRange(ctx, s.indexKey, 0, excess-1).Result()
	if err != nil {
		return fmt.Errorf("redis journal: read oldest: %w", err)
	}
	if len(oldest) == 0 {
		return nil
	}
	ids := make([]string, len(oldest))
	members := make([]any, len(oldest))
	for i, m := range oldest {
		ids[i] = memberID(m)
		members[i] = m
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HDel(ctx, s.entriesKey, ids...)
		pipe.ZRem(ctx, s.indexKey, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis journal: trim: %w", err)
	}
	return nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (*journal.Entry, error) {
	data, err := s.client.HGet(ctx, s.entriesKey, id).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, journal.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis journal: get %s: %w", id, err)
	}
	return decodeEntry(data)
}

// List walks the index newest first, filtering until the limit is reached.
func (s *Store) List(ctx context.Context, f journal.Filter) ([]*journal.Entry, error) {
	limit := f.EffectiveLimit()
	out := make([]*journal.Entry, 0, min(limit, listBatch))

	for start := int64(0); len(out) < limit; start += listBatch {
		members, err := s.client.ZRevRange(ctx, s.indexKey, start, start+listBatch-1).Result()
		if err != nil {
			return nil, fmt.Errorf("redis journal: list: %w", err)
		}
		if len(members) == 0 {
			break
		}

		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = memberID(m)
		}
		values, err := s.client.HMGet(ctx, s.entriesKey, ids...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis journal: list: %w", err)
		}

		for _, v := range values {
			data, ok := v.(string)
			if !ok {
				// Trimmed between the two reads.
				continue
			}
			e, err := decodeEntry(data)
			if err != nil {
				return nil, err
			}
			if f.Matches(e) {
				out = append(out, e)
				if len(out) == limit {
					break
				}
			}
		}

		if len(members) < listBatch {
			break
		}
	}
	return out, nil
}

func decodeEntry(data string) (*journal.Entry, error) {
	var e journal.Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return nil, fmt.Errorf("redis journal: decode entry: %w", err)
	}
	if e.Arguments == nil {
		e.Arguments = map[string]any{}
	}
	return &e, nil
}
