// Package stdio implements the STDIO Transport: a single long-lived
// process reading line-delimited JSON-RPC from standard input and
// writing responses to standard output, with idle and total-uptime
// timeouts.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	mcp "github.com/inference-tools/mcpserve"
)

// Server runs the STDIO main loop.
type Server struct {
	Lifecycle   *mcp.Lifecycle
	Engine      *mcp.Engine
	MaxUptime   time.Duration
	InitTimeout time.Duration
	Logger      *zap.Logger

	In  io.Reader
	Out io.Writer
}

// readResult carries one line read from standard input, or an error
// (including io.EOF), back to the main loop.
type readResult struct {
	line []byte
	err  error
}

// Run executes the main loop until standard input reaches EOF or
// MaxUptime elapses. It always closes the process's session (if any) and
// runs the reaper before returning.
func (s *Server) Run(ctx context.Context) error {
	reader := bufio.NewReader(s.In)
	writer := bufio.NewWriter(s.Out)

	readTimeout := s.InitTimeout
	if readTimeout == 0 || readTimeout > 60*time.Second {
		readTimeout = 60 * time.Second
	}

	lines := make(chan readResult)
	go func() {
		for {
			line, err := reader.ReadBytes('\n')
			lines <- readResult{line: line, err: err}
			if err != nil {
				return
			}
		}
	}()

	start := time.Now()
	var sessionID string
	idleCount := 0

	defer func() {
		if sessionID != "" {
			if _, err := s.Lifecycle.Close(ctx, sessionID); err != nil {
				s.Logger.Warn("failed to close session on exit", zap.Error(err))
			}
		}
		if err := s.Lifecycle.Reap(int64(s.MaxUptime.Seconds()), int64(s.InitTimeout.Seconds())); err != nil {
			s.Logger.Warn("reaper sweep failed on exit", zap.Error(err))
		}
	}()

	for {
		if s.MaxUptime > 0 && time.Since(start) >= s.MaxUptime {
			s.Logger.Info("max uptime reached, exiting")
			return nil
		}

		select {
		case res := <-lines:
			if len(bytes.TrimSpace(res.line)) > 0 {
				idleCount = 0
				newSessionID := s.handleLine(ctx, writer, res.line, sessionID)
				if newSessionID != "" {
					sessionID = newSessionID
				}
			}
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					s.Logger.Info("stdin EOF, client disconnected")
					return nil
				}
				s.Logger.Error("error reading stdin", zap.Error(res.err))
				return res.err
			}
		case <-time.After(readTimeout):
			idleCount++
			s.Logger.Info("idle read timeout", zap.Int("idle_count", idleCount), zap.Duration("timeout", readTimeout))
		}
	}
}

// handleLine validates, gates and dispatches a single NDJSON line. It
// returns the session id established by a successful initialize, if any,
// so the caller can populate the process-local slot.
func (s *Server) handleLine(ctx context.Context, writer *bufio.Writer, line []byte, currentSessionID string) (newSessionID string) {
	req, outcome, code := mcp.Validate(line)
	switch outcome {
	case mcp.Unparseable:
		s.write(writer, map[string]interface{}{
			"jsonrpc": "2.0", "id": nil,
			"error": map[string]interface{}{"code": mcp.ErrCodeParseError, "message": "Parse error", "data": struct{}{}},
		})
		return ""
	case mcp.Malformed:
		s.write(writer, map[string]interface{}{
			"jsonrpc": "2.0", "id": nil,
			"error": map[string]interface{}{"code": code, "message": "Invalid Request", "data": struct{}{}},
		})
		return ""
	}

	if req.Method == "initialize" {
		resp, sessionID, _ := s.Lifecycle.HandleInitialize(ctx, req, false)
		s.write(writer, resp)
		if resp.Error == nil {
			return sessionID
		}
		return ""
	}

	if currentSessionID == "" {
		s.write(writer, map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": mcp.ErrCodeInvalidRequest, "message": "Connection not established", "data": struct{}{}},
		})
		return ""
	}

	// STDIO has no request headers, so the MCP-Protocol-Version header check
	// (HTTP-only) is skipped by passing httpTransport=false.
	gate := s.Lifecycle.Gate(ctx, req, currentSessionID, "Connection not established", "", false)
	if gate.Error != nil {
		s.write(writer, gate.Error)
		return ""
	}

	resp := s.Engine.Dispatch(ctx, req, gate.NegotiatedVersion)
	if resp != nil {
		s.write(writer, resp)
	}
	return ""
}

func (s *Server) write(writer *bufio.Writer, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.Logger.Error("failed to marshal response", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := writer.Write(data); err != nil {
		s.Logger.Error("failed to write response", zap.Error(err))
		return
	}
	if err := writer.Flush(); err != nil {
		s.Logger.Error("failed to flush response", zap.Error(err))
	}
}
