// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlite stores the journal in a SQLite file using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leseb/aws-mcp-gw/pkg/journal"
	"github.com/leseb/aws-mcp-gw/pkg/journal/sqlstore"

	_ "modernc.org/sqlite"
)

func init() {
	journal.Providers.Register("sqlite", func(ctx context.Context, params map[string]string) (journal.Store, error) {
		return New(ctx, params["dsn"])
	})
}

var dialect = sqlstore.Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS tool_calls (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			tool TEXT NOT NULL,
			request_id TEXT NOT NULL DEFAULT '',
			arguments TEXT NOT NULL DEFAULT '{}',
			outcome TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tool_calls_started ON tool_calls(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tool_calls_tool ON tool_calls(tool)`,
	},
}

// New opens (or creates) the database at path. ":memory:" gives a private
// in-memory database.
func New(ctx context.Context, path string) (*sqlstore.Store, error) {
	if path == "" {
		path = "aws-mcp-gw.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// An in-memory database exists per connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite set pragma: %w", err)
		}
	}

	s, err := sqlstore.Open(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
