// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/leseb/aws-mcp-gw/pkg/core/dispatch"
	"github.com/leseb/aws-mcp-gw/pkg/journal"
	"github.com/leseb/aws-mcp-gw/pkg/mcp"
	"github.com/leseb/aws-mcp-gw/pkg/observability/logging"
)

// DefaultMaxBodyBytes caps a JSON-RPC request body when no limit is set.
const DefaultMaxBodyBytes = 4 << 20

// Options configures the HTTP adapter.
type Options struct {
	MaxBodyBytes int64
	// Journal backs the /v1/calls endpoints; nil serves empty lists.
	Journal journal.Store
}

// Handler implements the HTTP adapter
type Handler struct {
	dispatcher *dispatch.Dispatcher
	journal    journal.Store
	logger     *logging.Logger
	mux        *http.ServeMux
	maxBody    int64
}

// New creates a new HTTP handler
func New(d *dispatch.Dispatcher, logger *logging.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	h := &Handler{
		dispatcher: d,
		journal:    opts.Journal,
		logger:     logger,
		mux:        http.NewServeMux(),
		maxBody:    maxBody,
	}

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("POST /mcp", h.handleMCP)

	// Tool call journal
	h.mux.HandleFunc("GET /v1/calls", h.handleListCalls)
	h.mux.HandleFunc("GET /v1/calls/{id}", h.handleGetCall)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	h.mux.ServeHTTP(w, r)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleMCP answers one JSON-RPC message. Notifications get 204 and no
// body; everything else, protocol errors included, is a 200.
func (h *Handler) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("Request body too large", "limit", tooLarge.Limit)
			h.writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return
	}

	if !json.Valid(body) {
		h.logger.Warn("Unparseable JSON-RPC message", "bytes", len(body))
		writeJSON(w, http.StatusOK, &mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPCVersion,
			Error:   &mcp.JSONRPCError{Code: mcp.CodeParseError, Message: "Parse error"},
		})
		return
	}

	resp := h.dispatcher.Handle(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListCalls lists journal entries, newest first.
func (h *Handler) handleListCalls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := journal.Filter{Tool: q.Get("tool")}

	if v := q.Get("errors_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "errors_only must be a boolean")
			return
		}
		filter.ErrorsOnly = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	entries := []*journal.Entry{}
	if h.journal != nil {
		found, err := h.journal.List(r.Context(), filter)
		if err != nil {
			h.logger.Error("Failed to list tool calls", "error", err)
			h.writeError(w, http.StatusInternalServerError, "server_error", "failed to list tool calls")
			return
		}
		entries = append(entries, found...)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   entries,
	})
}

// handleGetCall returns a single journal entry.
func (h *Handler) handleGetCall(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.journal == nil {
		h.writeError(w, http.StatusNotFound, "not_found", "tool call "+id+" not found")
		return
	}

	entry, err := h.journal.Get(r.Context(), id)
	if errors.Is(err, journal.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "tool call "+id+" not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to get tool call", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "server_error", "failed to get tool call")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
