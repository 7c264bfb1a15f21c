// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlstore implements journal.Store on database/sql. The sqlite and
// postgres backends differ only in driver, DDL and placeholder syntax.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leseb/aws-mcp-gw/pkg/journal"
)

// Dialect describes the SQL differences between backends.
type Dialect struct {
	// Name is used in error messages ("sqlite", "postgres").
	Name string
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder func(n int) string
	// Schema holds the statements that create the tables and indexes.
	Schema []string
}

// Store is a journal.Store over an open *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// compile-time check
var _ journal.Store = (*Store)(nil)

// Open wraps db and creates the tables. The store owns db from then on.
func Open(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	s := &Store{db: db, dialect: d}
	if err := s.createTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s create tables: %w", s.dialect.Name, err)
		}
	}
	return nil
}

// Truncate deletes every entry.
func (s *Store) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tool_calls`); err != nil {
		return fmt.Errorf("%s truncate tool calls: %w", s.dialect.Name, err)
	}
	return nil
}

// Record inserts e.
func (s *Store) Record(ctx context.Context, e *journal.Entry) error {
	journal.Prepare(e)

	args, err := json.Marshal(e.Arguments)
	if err != nil {
		return fmt.Errorf("marshal arguments: %w", err)
	}

	p := s.dialect.Placeholder
	query := fmt.Sprintf(`INSERT INTO tool_calls
		(id, tool, request_id, arguments, outcome, message, started_at, duration_ns)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8))

	_, err = s.db.ExecContext(ctx, query,
		e.ID, e.Tool, e.RequestID, string(args), e.Outcome, e.Message,
		e.StartedAt.UnixNano(), int64(e.Duration))
	if err != nil {
		return fmt.Errorf("%s insert tool call: %w", s.dialect.Name, err)
	}
	return nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (*journal.Entry, error) {
	query := `SELECT id, tool, request_id, arguments, outcome, message, started_at, duration_ns
		FROM tool_calls WHERE id = ` + s.dialect.Placeholder(1)

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", id, journal.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s get tool call: %w", s.dialect.Name, err)
	}
	return e, nil
}

// List returns matching entries, newest first.
func (s *Store) List(ctx context.Context, f journal.Filter) ([]*journal.Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Tool != "" {
		args = append(args, f.Tool)
		where = append(where, "tool = "+s.dialect.Placeholder(len(args)))
	}
	if f.ErrorsOnly {
		args = append(args, "success")
		where = append(where, "outcome <> "+s.dialect.Placeholder(len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, tool, request_id, arguments, outcome, message, started_at, duration_ns FROM tool_calls`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, f.EffectiveLimit())
	fmt.Fprintf(&b, " ORDER BY started_at DESC, seq DESC LIMIT %s", s.dialect.Placeholder(len(args)))

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s list tool calls: %w", s.dialect.Name, err)
	}
	defer rows.Close()

	var out []*journal.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan tool call: %w", s.dialect.Name, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*journal.Entry, error) {
	var (
		e          journal.Entry
		args       string
		startedAt  int64
		durationNS int64
	)
	if err := row.Scan(&e.ID, &e.Tool, &e.RequestID, &args, &e.Outcome, &e.Message, &startedAt, &durationNS); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(args), &e.Arguments); err != nil {
		return nil, fmt.Errorf("unmarshal arguments: %w", err)
	}
	e.StartedAt = time.Unix(0, startedAt)
	e.Duration = time.Duration(durationNS)
	return &e, nil
}
