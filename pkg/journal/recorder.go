// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"time"

	"github.com/leseb/aws-mcp-gw/pkg/core/dispatch"
	"github.com/leseb/aws-mcp-gw/pkg/observability/logging"
)

// writeTimeout bounds a single Record call so a slow database cannot hold a
// response back indefinitely.
const writeTimeout = 2 * time.Second

// Recorder writes every observed tool call to a Store.
type Recorder struct {
	store  Store
	logger *logging.Logger
}

var _ dispatch.Observer = (*Recorder)(nil)

// NewRecorder returns a dispatch.Observer backed by store.
func NewRecorder(store Store, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{store: store, logger: logger.With("component", "journal")}
}

// ObserveCall records rec. Storage failures are logged and otherwise
// ignored.
func (r *Recorder) ObserveCall(ctx context.Context, rec dispatch.CallRecord) {
	entry := &Entry{
		Tool:      rec.Tool,
		RequestID: string(rec.RequestID),
		Arguments: rec.Arguments,
		Outcome:   string(rec.Outcome),
		Message:   rec.Message,
		StartedAt: rec.StartedAt,
		Duration:  rec.Duration,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := r.store.Record(ctx, entry); err != nil {
		r.logger.Error("Failed to record tool call", "tool", rec.Tool, "error", err)
	}
}
