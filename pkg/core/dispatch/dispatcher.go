// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch turns JSON-RPC messages into MCP responses.
//
// The Dispatcher classifies a message (notification or request), routes it
// by method and, for tools/call, resolves the tool, validates its arguments,
// runs it and formats the result. Two failure classes are kept strictly
// apart: protocol failures become a JSON-RPC "error" member, while tool
// failures (rejected arguments or a failed run) become a successful
// response whose result has isError set.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leseb/aws-mcp-gw/pkg/core/tool"
	"github.com/leseb/aws-mcp-gw/pkg/mcp"
	"github.com/leseb/aws-mcp-gw/pkg/observability/logging"
)

const (
	// compatErrorMessage is the message historically returned for every
	// rejected request shape. Clients match on it.
	compatErrorMessage = "Internal Server Error"

	defaultServerName    = "aws-mcp-gw"
	defaultServerVersion = "1.0.0"
)

// Options configures a Dispatcher.
type Options struct {
	ServerName    string
	ServerVersion string
	// DescriptiveErrors replaces the compatible "Internal Server Error"
	// replies with specific codes and messages.
	DescriptiveErrors bool
	Logger            *logging.Logger
	Observer          Observer
}

// Dispatcher is stateless; one instance serves all requests concurrently.
type Dispatcher struct {
	registry *tool.Registry
	opts     Options
	logger   *logging.Logger
}

// New creates a dispatcher over an immutable registry.
func New(registry *tool.Registry, opts Options) *Dispatcher {
	if registry == nil {
		registry = tool.NewRegistry()
	}
	if opts.ServerName == "" {
		opts.ServerName = defaultServerName
	}
	if opts.ServerVersion == "" {
		opts.ServerVersion = defaultServerVersion
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Dispatcher{
		registry: registry,
		opts:     opts,
		logger:   logger.With("component", "dispatch"),
	}
}

// Handle parses and dispatches one raw JSON message. It returns nil when no
// response must be sent (notifications).
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) *mcp.JSONRPCResponse {
	req, err := mcp.Parse(raw)
	if err != nil {
		var pe *mcp.ParseError
		if !errors.As(err, &pe) {
			pe = &mcp.ParseError{Kind: mcp.KindInvalidRequest, Reason: err.Error()}
		}
		return d.respond(pe.ID, d.protocolError(pe))
	}
	return d.Dispatch(ctx, req)
}

// Dispatch routes an already parsed request.
func (d *Dispatcher) Dispatch(ctx context.Context, req mcp.Request) *mcp.JSONRPCResponse {
	switch r := req.(type) {
	case *mcp.Notification:
		d.logger.Debug("Notification received", "method", r.Method)
		return nil
	case *mcp.InitializeRequest:
		d.logger.Info("Client initialized",
			"client", r.Params.ClientInfo.Name,
			"client_version", r.Params.ClientInfo.Version,
			"protocol", r.Params.ProtocolVersion)
		return d.success(r.ID, d.initializeResult())
	case *mcp.ListToolsRequest:
		return d.success(r.ID, d.listTools())
	case *mcp.CallToolRequest:
		return d.respond(r.ID, d.call(ctx, r))
	default:
		return errorResponse(nil, mcp.CodeInvalidRequest, "Invalid Request", nil)
	}
}

func (d *Dispatcher) initializeResult() mcp.InitializeResult {
	return mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
		ServerInfo: mcp.ClientInfo{
			Name:    d.opts.ServerName,
			Version: d.opts.ServerVersion,
		},
	}
}

func (d *Dispatcher) listTools() mcp.ToolsListResult {
	tools := d.registry.List()
	result := mcp.ToolsListResult{Tools: make([]mcp.ToolInfo, 0, len(tools))}
	for _, t := range tools {
		result.Tools = append(result.Tools, mcp.ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
		})
	}
	return result
}

// callOutcome is either a protocolFailure or a toolOutcome. Keeping the two
// as distinct types means a tool failure cannot be rendered as a JSON-RPC
// error, nor a protocol failure as a tool result.
type callOutcome interface {
	isCallOutcome()
}

type protocolFailure struct {
	code    int
	message string
	data    any
}

type toolOutcome struct {
	result mcp.ToolCallResult
}

func (protocolFailure) isCallOutcome() {}
func (toolOutcome) isCallOutcome()     {}

func (d *Dispatcher) call(ctx context.Context, req *mcp.CallToolRequest) callOutcome {
	name := req.Params.Name
	t, ok := d.registry.Find(name)
	if !ok {
		d.logger.Warn("Tool not found", "tool", name, "id", string(req.ID))
		return protocolFailure{
			code:    mcp.CodeMethodNotFound,
			message: "Tool not found: " + name,
		}
	}

	// Schema-less tools ignore their arguments, whatever their shape.
	if pe := req.ArgumentsError(); pe != nil && t.Args != nil {
		return d.protocolError(pe)
	}

	start := time.Now()
	rec := CallRecord{
		Tool:      t.Name,
		RequestID: req.ID,
		Arguments: req.Params.Arguments,
		StartedAt: start,
	}

	var args map[string]any
	if t.Args != nil {
		validated, issues := t.Args.Validate(req.Params.Arguments)
		if len(issues) > 0 {
			result := FormatIssues(issues)
			rec.Outcome = OutcomeInvalidArguments
			rec.Message = result.Text()
			d.finish(ctx, rec, start)
			return toolOutcome{result: result}
		}
		args = validated
	}

	value, err := invoke(ctx, t, args)
	var result mcp.ToolCallResult
	if err != nil {
		result = FormatError(err)
		rec.Outcome = OutcomeToolError
		rec.Message = result.Text()
	} else {
		result = FormatValue(value)
		rec.Outcome = OutcomeSuccess
		if result.IsError {
			rec.Outcome = OutcomeToolError
			rec.Message = result.Text()
		}
	}
	d.finish(ctx, rec, start)
	return toolOutcome{result: result}
}

func (d *Dispatcher) finish(ctx context.Context, rec CallRecord, start time.Time) {
	rec.Duration = time.Since(start)

	attrs := []any{
		"tool", rec.Tool,
		"id", string(rec.RequestID),
		"outcome", string(rec.Outcome),
		"duration_ms", rec.Duration.Milliseconds(),
	}
	if rec.Outcome == OutcomeSuccess {
		d.logger.Info("Tool call completed", attrs...)
	} else {
		d.logger.Warn("Tool call failed", append(attrs, "error", rec.Message)...)
	}

	if d.opts.Observer != nil {
		d.observe(ctx, rec)
	}
}

// observe hands rec to the observer. A panicking observer is logged and
// the response is sent as usual.
func (d *Dispatcher) observe(ctx context.Context, rec CallRecord) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Tool call observer panicked", "tool", rec.Tool, "panic", fmt.Sprint(r))
		}
	}()
	d.opts.Observer.ObserveCall(ctx, rec)
}

// invoke runs the tool and converts a panic into an error so that a broken
// tool still yields a well-formed response.
func invoke(ctx context.Context, t tool.Tool, args map[string]any) (value any, err error) {
	if t.Run == nil {
		return nil, fmt.Errorf("tool %s has no implementation", t.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("tool %s panicked: %v", t.Name, r)
		}
	}()
	return t.Run(ctx, args)
}

func (d *Dispatcher) respond(id json.RawMessage, outcome callOutcome) *mcp.JSONRPCResponse {
	switch o := outcome.(type) {
	case protocolFailure:
		return errorResponse(id, o.code, o.message, o.data)
	case toolOutcome:
		return d.success(id, o.result)
	default:
		return errorResponse(id, mcp.CodeInternalError, "Internal error", nil)
	}
}

func (d *Dispatcher) protocolError(pe *mcp.ParseError) protocolFailure {
	d.logger.Warn("Rejected request",
		"kind", pe.Kind.String(),
		"id", string(pe.ID),
		"method", pe.Method,
		"reason", pe.Reason)

	if !d.opts.DescriptiveErrors {
		if pe.Kind == mcp.KindInvalidRequest {
			return protocolFailure{code: mcp.CodeInvalidRequest, message: "Invalid Request"}
		}
		return protocolFailure{code: mcp.CodeInvalidParams, message: compatErrorMessage}
	}

	switch pe.Kind {
	case mcp.KindUnknownMethod:
		return protocolFailure{code: mcp.CodeMethodNotFound, message: "Method not found: " + pe.Method}
	case mcp.KindInvalidParams:
		var data any
		if len(pe.Issues) > 0 {
			data = pe.Issues
		}
		return protocolFailure{code: mcp.CodeInvalidParams, message: "Invalid params: " + pe.Reason, data: data}
	default:
		return protocolFailure{code: mcp.CodeInvalidRequest, message: "Invalid Request: " + pe.Reason}
	}
}

func (d *Dispatcher) success(id json.RawMessage, result any) *mcp.JSONRPCResponse {
	data, err := json.Marshal(result)
	if err != nil {
		d.logger.Error("Failed to encode result", "id", string(id), "error", err)
		return errorResponse(id, mcp.CodeInternalError, "Internal error", nil)
	}
	return &mcp.JSONRPCResponse{
		JSONRPC: mcp.JSONRPCVersion,
		ID:      id,
		Result:  data,
	}
}

func errorResponse(id json.RawMessage, code int, message string, data any) *mcp.JSONRPCResponse {
	return &mcp.JSONRPCResponse{
		JSONRPC: mcp.JSONRPCVersion,
		ID:      id,
		Error: &mcp.JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
