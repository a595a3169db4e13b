package mcp

import (
	"context"
	"fmt"
)

// GateResult carries the outcome of running the Session Lifecycle gate on
// a non-initialize request.
type GateResult struct {
	// Error is set when gating rejects the request; Dispatch must not run.
	Error *Response
	// NegotiatedVersion is the session's protocol version, valid whenever
	// Error is nil.
	NegotiatedVersion string
}

// Lifecycle implements the session state machine: it negotiates protocol
// version on initialize, enforces the session-header and version-header
// rules on every later request, and transitions INITIALIZING -> OPEN on
// notifications/initialized.
type Lifecycle struct {
	Store  SessionStore
	Engine *Engine
	// Now returns the current wall-clock time in seconds. It is the
	// function passed to NewLifecycle; tests pass a fixed clock.
	Now func() int64
}

// NewLifecycle builds a Lifecycle bound to store and engine, reading the
// current time in seconds from now.
func NewLifecycle(store SessionStore, engine *Engine, now func() int64) *Lifecycle {
	return &Lifecycle{Store: store, Engine: engine, Now: now}
}

// HandleInitialize processes an initialize request. hasSessionID
// reports whether the transport already observed a session-id header on an
// initialize request (HTTP only; always false on STDIO) — clients must not
// pre-supply one.
func (l *Lifecycle) HandleInitialize(ctx context.Context, req *Request, hasSessionID bool) (resp *Response, sessionID string, negotiatedVersion string) {
	if hasSessionID {
		return newError(req.ID, ErrCodeInvalidRequest, "initialize must not carry a session id", nil), "", ""
	}
	if req.IsNotification() {
		return newError(req.ID, ErrCodeInvalidRequest, "initialize requires an id", nil), "", ""
	}

	var params InitializeParams
	if err := decodeParams(req.Params, &params); err != nil || params.ProtocolVersion == "" || params.ClientInfo == nil {
		return newError(req.ID, ErrCodeInvalidRequest, "invalid initialize params", nil), "", ""
	}

	if !isSupportedVersion(params.ProtocolVersion) {
		return newError(req.ID, ErrCodeInvalidParams, "Unsupported protocol version", map[string]interface{}{
			"supported": supportedVersions,
			"requested": params.ProtocolVersion,
		}), "", ""
	}

	sessionID, err := NewSessionID()
	if err != nil {
		return newError(req.ID, ErrCodeInternalError, "failed to create session", nil), "", ""
	}

	now := l.Now()
	record := SessionRecord{
		SessionID:       sessionID,
		Status:          StatusInitializing,
		OpenedAt:        now,
		ClosedAt:        0,
		ClientInfo:      params.ClientInfo,
		ProtocolVersion: params.ProtocolVersion,
	}
	if err := l.Store.Create(record); err != nil {
		return newError(req.ID, ErrCodeInternalError, fmt.Sprintf("failed to persist session: %v", err), nil), "", ""
	}

	result := l.Engine.BuildInitializeResult(params.ProtocolVersion)
	return newResult(req.ID, result), sessionID, params.ProtocolVersion
}

// Gate enforces the session-header and protocol-version rules for every
// request other than initialize.
// sessionID is empty when no session id was presented at all; missingSessionMsg
// is the transport-specific wording for that case ("Mcp-Session-Id header
// required" on HTTP, "Connection not established" on STDIO).
// protocolVersionHeader is the HTTP MCP-Protocol-Version header value (ignored
// when httpTransport is false). The header requirement itself is HTTP-only:
// STDIO has no request headers at all, so a STDIO caller must pass
// httpTransport=false to skip the check entirely rather than passing an empty
// header value, which over HTTP means "header missing".
func (l *Lifecycle) Gate(ctx context.Context, req *Request, sessionID string, missingSessionMsg string, protocolVersionHeader string, httpTransport bool) GateResult {
	if sessionID == "" {
		return GateResult{Error: newError(req.ID, ErrCodeInvalidRequest, missingSessionMsg, nil)}
	}

	record, ok, err := l.Store.Read(sessionID)
	if err != nil || !ok || record.Status == StatusClosed {
		return GateResult{Error: newError(req.ID, ErrCodeInvalidRequest, "invalid or closed session", nil)}
	}

	if httpTransport && record.ProtocolVersion == ProtocolVersion20250618 {
		if protocolVersionHeader == "" {
			return GateResult{Error: newError(req.ID, ErrCodeInvalidRequest, "MCP-Protocol-Version header required", nil)}
		}
		if protocolVersionHeader != record.ProtocolVersion {
			return GateResult{Error: newError(req.ID, ErrCodeInvalidRequest, "MCP-Protocol-Version mismatch", nil)}
		}
	}

	status := record.Status
	if req.Method == "notifications/initialized" && status == StatusInitializing {
		if _, ok, err := l.Store.Update(sessionID, StatusOpen, l.Now()); err == nil && ok {
			status = StatusOpen
		}
	}

	if status != StatusOpen {
		return GateResult{Error: newError(req.ID, ErrCodeInvalidRequest, "Connection not fully initialized", nil)}
	}

	return GateResult{NegotiatedVersion: record.ProtocolVersion}
}

// Close transitions a session to CLOSED (HTTP DELETE, or STDIO end-of-stream).
// ok is false if the session does not exist.
func (l *Lifecycle) Close(ctx context.Context, sessionID string) (ok bool, err error) {
	_, ok, err = l.Store.Update(sessionID, StatusClosed, l.Now())
	return ok, err
}

// Reap runs the store's reaper with the given thresholds.
func (l *Lifecycle) Reap(maxUptimeSeconds, initTimeoutSeconds int64) error {
	return l.Store.Reap(l.Now(), maxUptimeSeconds, initTimeoutSeconds)
}
