// Package http implements the HTTP Transport: CORS preflight, path
// routing between the core MCP endpoint and host-defined custom
// endpoints, DELETE-to-close, method policing, and a single call into the
// Protocol Engine per request.
//
// A one-process-per-request model would give each request a fresh
// reaper sweep and session-store read for free. This server is instead an
// idiomatic persistent net/http.Handler, so it performs that same
// sequence explicitly on every request: a reaper sweep, a wall-clock
// timeout before handling, and a full Session Store consultation.
package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	mcp "github.com/inference-tools/mcpserve"
)

const (
	headerSessionID      = "Mcp-Session-Id"
	headerProtocolVer    = "MCP-Protocol-Version"
	headerExpectedDur    = "Mcp-Expected-Duration"
	corsAllowedHeaders   = "Content-Type, Accept, Mcp-Session-Id, MCP-Protocol-Version, Authorization"
	corsAllowedMethods   = "GET, POST, DELETE, OPTIONS"
	maxUptimeDefault     = 24 * time.Hour
	initTimeoutDefault   = 60 * time.Second
)

// Handler wires the Session Lifecycle, Protocol Engine and Tool Registry
// into a net/http.Handler.
type Handler struct {
	Lifecycle    *mcp.Lifecycle
	Engine       *mcp.Engine
	Registry     *mcp.Registry
	EndpointPath string
	MaxUptime    time.Duration
	InitTimeout  time.Duration
	Logger       *zap.Logger

	router *mux.Router
}

// New builds the HTTP Transport's handler.
func New(h *Handler) http.Handler {
	if h.MaxUptime == 0 {
		h.MaxUptime = maxUptimeDefault
	}
	if h.InitTimeout == 0 {
		h.InitTimeout = initTimeoutDefault
	}

	r := mux.NewRouter()
	corePaths := corePathVariants(h.EndpointPath)
	for _, p := range corePaths {
		r.HandleFunc(p, h.handleCore)
	}
	for path, custom := range h.Registry.ListCustomEndpoints() {
		r.HandleFunc(path, custom)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		setCORS(w)
		http.Error(w, "not found", http.StatusNotFound)
	})
	h.router = r
	return h
}

// corePathVariants returns every path form the core endpoint answers on:
// the configured path, with or without trailing slash, and <path>/mcp[/].
func corePathVariants(base string) []string {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		base = "/mcp"
	}
	return []string{base, base + "/", base + "/mcp", base + "/mcp/"}
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
	w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
	w.Header().Set("Access-Control-Max-Age", "86400")
}

func (h *Handler) handleCore(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	log := h.Logger.With(zap.String("request_id", reqID))

	// Process-level setup: reap before handling, and bound this request's
	// wall-clock time to min(maxToolTiming, maxUptime).
	if err := h.Lifecycle.Reap(int64(h.MaxUptime.Seconds()), int64(h.InitTimeout.Seconds())); err != nil {
		log.Warn("reaper sweep failed", zap.Error(err))
	}

	timeout := h.MaxUptime
	if hint := h.Registry.MaxToolTiming(); hint > 0 && time.Duration(hint)*time.Second < timeout {
		timeout = time.Duration(hint) * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	r = r.WithContext(ctx)

	setCORS(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method == http.MethodDelete {
		h.handleDelete(w, r, log)
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.handlePost(w, r, log)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	sessionID := r.Header.Get(headerSessionID)
	if sessionID == "" {
		http.Error(w, "Mcp-Session-Id header required", http.StatusBadRequest)
		return
	}
	ok, err := h.Lifecycle.Close(r.Context(), sessionID)
	if err != nil {
		log.Error("failed to close session", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed", "session": sessionID})
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	req, outcome, code := mcp.Validate(body)
	switch outcome {
	case mcp.Unparseable:
		writeJSON(w, http.StatusBadRequest, errorEnvelope(nil, mcp.ErrCodeParseError, "Parse error"))
		return
	case mcp.Malformed:
		writeJSON(w, http.StatusBadRequest, errorEnvelope(nil, code, "Invalid Request"))
		return
	}

	if req.Method == "initialize" {
		hasSessionID := r.Header.Get(headerSessionID) != ""
		resp, sessionID, negotiated := h.Lifecycle.HandleInitialize(r.Context(), req, hasSessionID)
		if resp.Error != nil {
			writeJSON(w, http.StatusOK, resp)
			return
		}
		w.Header().Set(headerSessionID, sessionID)
		if negotiated == mcp.ProtocolVersion20250618 {
			w.Header().Set(headerProtocolVer, negotiated)
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	sessionID := r.Header.Get(headerSessionID)
	protoHeader := r.Header.Get(headerProtocolVer)
	gate := h.Lifecycle.Gate(r.Context(), req, sessionID, "Mcp-Session-Id header required", protoHeader, true)
	if gate.Error != nil {
		writeJSON(w, http.StatusOK, gate.Error)
		return
	}

	if req.IsNotification() {
		h.Engine.Dispatch(r.Context(), req, gate.NegotiatedVersion)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if hint := h.Registry.MaxToolTiming(); hint > 0 {
		w.Header().Set(headerExpectedDur, strconv.Itoa(hint))
	}
	if gate.NegotiatedVersion == mcp.ProtocolVersion20250618 {
		w.Header().Set(headerProtocolVer, gate.NegotiatedVersion)
	}

	resp := h.Engine.Dispatch(r.Context(), req, gate.NegotiatedVersion)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func errorEnvelope(id interface{}, code int, message string) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]interface{}{"code": code, "message": message, "data": struct{}{}},
	}
}

// ServeHTTP dispatches through the internal mux.Router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}
