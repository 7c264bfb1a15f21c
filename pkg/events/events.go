// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package events publishes a message to NATS for every tool invocation.
//
// Subjects are "<prefix>.<tool>.<outcome>", for example
// "mcp.tool_calls.aws_s3_get_object.tool_error", so subscribers can select
// failures with "mcp.tool_calls.*.tool_error".
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/leseb/aws-mcp-gw/pkg/core/dispatch"
	"github.com/leseb/aws-mcp-gw/pkg/observability/logging"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "mcp.tool_calls"

// Publisher is the subset of *nats.Conn used here.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the JSON payload of a published message.
type Event struct {
	Tool       string          `json:"tool"`
	RequestID  json.RawMessage `json:"request_id"`
	Outcome    string          `json:"outcome"`
	Message    string          `json:"message,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMS int64           `json:"duration_ms"`
}

// Notifier implements dispatch.Observer by publishing an Event per call.
type Notifier struct {
	pub    Publisher
	prefix string
	logger *logging.Logger
}

var _ dispatch.Observer = (*Notifier)(nil)

// Connect dials NATS, retrying the initial connection and reconnecting up
// to ten times.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("aws-mcp-gw"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return conn, nil
}

// NewNotifier creates a notifier. An empty prefix uses DefaultSubjectPrefix.
func NewNotifier(pub Publisher, prefix string, logger *logging.Logger) *Notifier {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Notifier{
		pub:    pub,
		prefix: prefix,
		logger: logger.With("component", "events"),
	}
}

// Subject returns the subject a record is published on.
func (n *Notifier) Subject(rec dispatch.CallRecord) string {
	return n.prefix + "." + rec.Tool + "." + string(rec.Outcome)
}

// ObserveCall publishes rec. Publish failures are logged and dropped.
func (n *Notifier) ObserveCall(_ context.Context, rec dispatch.CallRecord) {
	requestID := rec.RequestID
	if len(requestID) == 0 {
		requestID = json.RawMessage("null")
	}
	data, err := json.Marshal(Event{
		Tool:       rec.Tool,
		RequestID:  requestID,
		Outcome:    string(rec.Outcome),
		Message:    rec.Message,
		StartedAt:  rec.StartedAt,
		DurationMS: rec.Duration.Milliseconds(),
	})
	if err != nil {
		n.logger.Warn("Failed to encode tool call event", "tool", rec.Tool, "error", err)
		return
	}

	subject := n.Subject(rec)
	if err := n.pub.Publish(subject, data); err != nil {
		n.logger.Warn("Failed to publish tool call event", "subject", subject, "error", err)
	}
}
