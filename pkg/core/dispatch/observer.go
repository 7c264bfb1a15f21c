// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"time"
)

// Outcome classifies a tools/call that reached a registered tool.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeInvalidArguments Outcome = "invalid_arguments"
	OutcomeToolError        Outcome = "tool_error"
)

// CallRecord describes one completed tool invocation.
type CallRecord struct {
	Tool      string
	RequestID json.RawMessage
	// Arguments as received, before validation.
	Arguments map[string]any
	Outcome   Outcome
	// Message is the error text for failed calls, empty on success.
	Message   string
	StartedAt time.Time
	Duration  time.Duration
}

// Observer is notified after every tool invocation. It runs on the request
// goroutine, before the response is returned, and cannot alter the
// response.
type Observer interface {
	ObserveCall(ctx context.Context, rec CallRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, rec CallRecord)

// ObserveCall calls f(ctx, rec).
func (f ObserverFunc) ObserveCall(ctx context.Context, rec CallRecord) {
	f(ctx, rec)
}

// Observers fans a call out to every non-nil observer, in order. It returns
// nil when none remain.
func Observers(obs ...Observer) Observer {
	var kept multiObserver
	for _, o := range obs {
		if o != nil {
			kept = append(kept, o)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return kept
	}
}

type multiObserver []Observer

func (m multiObserver) ObserveCall(ctx context.Context, rec CallRecord) {
	for _, o := range m {
		o.ObserveCall(ctx, rec)
	}
}
