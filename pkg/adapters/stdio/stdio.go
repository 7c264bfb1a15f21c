// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package stdio serves MCP over newline-delimited JSON on a reader/writer
// pair, normally the process's stdin and stdout.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/leseb/aws-mcp-gw/pkg/core/dispatch"
	"github.com/leseb/aws-mcp-gw/pkg/mcp"
	"github.com/leseb/aws-mcp-gw/pkg/observability/logging"
)

// DefaultMaxLineBytes caps a single message.
const DefaultMaxLineBytes = 4 << 20

// Transport reads one JSON-RPC message per line and writes one response per
// line. Messages are handled in order.
type Transport struct {
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger
	maxLine    int

	mu sync.Mutex
}

// New creates a stdio transport. maxLine <= 0 uses DefaultMaxLineBytes.
func New(d *dispatch.Dispatcher, logger *logging.Logger, maxLine int) *Transport {
	if logger == nil {
		logger = logging.Discard()
	}
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	return &Transport{dispatcher: d, logger: logger, maxLine: maxLine}
}

// Serve processes messages from in until EOF or ctx is done. EOF is a clean
// shutdown and returns nil. A line longer than the limit is answered with an
// invalid request error and skipped.
func (t *Transport) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReaderSize(in, min(64*1024, t.maxLine))
	encoder := json.NewEncoder(out)

	t.logger.Info("MCP stdio transport starting")

	lines := make(chan message)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for {
			msg, err := t.readLine(reader)
			if msg.data != nil || msg.tooLong {
				select {
				case lines <- msg:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("MCP stdio transport shutting down")
			return ctx.Err()
		case msg, ok := <-lines:
			if !ok {
				var err error
				select {
				case err = <-readErr:
				default:
				}
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				t.logger.Info("EOF received, shutting down")
				return nil
			}
			if msg.tooLong {
				t.logger.Warn("Message exceeds line limit", "limit_bytes", t.maxLine)
				if err := t.write(encoder, &mcp.JSONRPCResponse{
					JSONRPC: mcp.JSONRPCVersion,
					Error:   &mcp.JSONRPCError{Code: mcp.CodeInvalidRequest, Message: "Invalid Request"},
				}); err != nil {
					return err
				}
				continue
			}
			if err := t.handleLine(ctx, msg.data, encoder); err != nil {
				return err
			}
		}
	}
}

type message struct {
	data    []byte
	tooLong bool
}

// readLine returns the next line without its terminator. Bytes beyond the
// limit are discarded up to the end of the line.
func (t *Transport) readLine(r *bufio.Reader) (message, error) {
	var msg message
	for {
		frag, err := r.ReadSlice('\n')
		if !msg.tooLong {
			n := len(msg.data) + len(bytes.TrimSuffix(frag, []byte("\n")))
			if n > t.maxLine {
				msg.data, msg.tooLong = nil, true
			} else {
				msg.data = append(msg.data, frag...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if msg.data != nil {
			msg.data = bytes.TrimSuffix(msg.data, []byte("\n"))
		}
		return msg, err
	}
}

func (t *Transport) handleLine(ctx context.Context, line []byte, encoder *json.Encoder) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	var resp *mcp.JSONRPCResponse
	if !json.Valid(line) {
		t.logger.Warn("Unparseable JSON-RPC message", "bytes", len(line))
		resp = &mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPCVersion,
			Error:   &mcp.JSONRPCError{Code: mcp.CodeParseError, Message: "Parse error"},
		}
	} else {
		resp = t.dispatcher.Handle(ctx, line)
	}
	if resp == nil {
		return nil
	}

	return t.write(encoder, resp)
}

func (t *Transport) write(encoder *json.Encoder, resp *mcp.JSONRPCResponse) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := encoder.Encode(resp); err != nil {
		t.logger.Error("Failed to encode response", "error", err)
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
