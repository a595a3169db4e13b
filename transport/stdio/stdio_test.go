package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	mcp "github.com/inference-tools/mcpserve"
	"github.com/inference-tools/mcpserve/internal/store"
)

func newTestServer(in string, out *bytes.Buffer) *Server {
	registry := mcp.NewRegistry()
	engine := mcp.NewEngine(registry, "test-server", "0.0.1")
	lifecycle := mcp.NewLifecycle(store.NewMemoryStore(), engine, func() int64 { return 1000 })

	return &Server{
		Lifecycle:   lifecycle,
		Engine:      engine,
		MaxUptime:   time.Hour,
		InitTimeout: 5 * time.Second,
		Logger:      zap.NewNop(),
		In:          strings.NewReader(in),
		Out:         out,
	}
}

func readResponses(t *testing.T, out *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var responses []map[string]interface{}
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp map[string]interface{}
		if err := json.Unmarshal(line, &resp); err != nil {
			t.Fatalf("response is not valid JSON: %v: %q", err, line)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestStdio_InitializeThenToolsList(t *testing.T) {
	in := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","clientInfo":{"name":"c"}}}` + "\n" +
		`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"
	out := &bytes.Buffer{}
	s := newTestServer(in, out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	responses := readResponses(t, out)
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses (initialize, tools/list), got %d: %+v", len(responses), responses)
	}
	if responses[0]["error"] != nil {
		t.Fatalf("expected successful initialize, got %+v", responses[0])
	}
	if responses[1]["error"] != nil {
		t.Fatalf("expected successful tools/list, got %+v", responses[1])
	}
}

func TestStdio_RequestBeforeInitializeIsRejected(t *testing.T) {
	in := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n"
	out := &bytes.Buffer{}
	s := newTestServer(in, out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	responses := readResponses(t, out)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	errObj, ok := responses[0]["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected an error response, got %+v", responses[0])
	}
	if errObj["message"] != "Connection not established" {
		t.Fatalf("expected 'Connection not established', got %+v", errObj)
	}
}

func TestStdio_MalformedLineReportsParseError(t *testing.T) {
	in := "not json\n"
	out := &bytes.Buffer{}
	s := newTestServer(in, out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	responses := readResponses(t, out)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	errObj := responses[0]["error"].(map[string]interface{})
	if int(errObj["code"].(float64)) != mcp.ErrCodeParseError {
		t.Fatalf("expected parse error code, got %+v", errObj)
	}
}

func TestStdio_ExitsCleanlyOnEOF(t *testing.T) {
	out := &bytes.Buffer{}
	s := newTestServer("", out)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("expected a clean exit on EOF, got %v", err)
	}
}
