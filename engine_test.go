package mcp

import (
	"context"
	"testing"
)

func addNumbersRegistry() *Registry {
	r := NewRegistry()
	tool := NewTool("add_numbers", "Add two numbers.",
		Number("a", "first", Required()),
		Number("b", "second", Required()),
		Output(Number("sum", "result")),
	)
	r.RegisterTool(tool, func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		a, _ := req.Float("a")
		b, _ := req.Float("b")
		return NewToolResponseStructured("5", map[string]interface{}{"sum": a + b}), nil
	}, 0)
	return r
}

func TestEngine_Ping(t *testing.T) {
	e := NewEngine(addNumbersRegistry(), "test", "0.0.0")
	resp := e.Dispatch(context.Background(), &Request{ID: 1, Method: "ping"}, ProtocolVersion20250618)
	if resp == nil || resp.Error != nil {
		t.Fatalf("expected successful ping response, got %+v", resp)
	}
}

func TestEngine_MethodNotFound(t *testing.T) {
	e := NewEngine(addNumbersRegistry(), "test", "0.0.0")
	resp := e.Dispatch(context.Background(), &Request{ID: 1, Method: "bogus"}, ProtocolVersion20250618)
	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotFound {
		t.Fatalf("expected method not found error, got %+v", resp)
	}
}

func TestEngine_NotificationDispatchReturnsNil(t *testing.T) {
	e := NewEngine(addNumbersRegistry(), "test", "0.0.0")
	resp := e.Dispatch(context.Background(), &Request{Method: "notifications/initialized"}, ProtocolVersion20250618)
	if resp != nil {
		t.Fatalf("expected nil response for a notification, got %+v", resp)
	}
}

func TestEngine_ToolsListShapingByVersion(t *testing.T) {
	e := NewEngine(addNumbersRegistry(), "test", "0.0.0")

	resp := e.Dispatch(context.Background(), &Request{ID: 1, Method: "tools/list"}, ProtocolVersion20250326)
	tools := resp.Result.(map[string]interface{})["tools"].([]ToolDescriptor)
	if tools[0].OutputSchema != nil {
		t.Fatal("expected outputSchema stripped for 2025-03-26")
	}

	resp = e.Dispatch(context.Background(), &Request{ID: 1, Method: "tools/list"}, ProtocolVersion20250618)
	tools = resp.Result.(map[string]interface{})["tools"].([]ToolDescriptor)
	if tools[0].OutputSchema == nil {
		t.Fatal("expected outputSchema preserved for 2025-06-18")
	}
}

func TestEngine_ToolsCallUnknownTool(t *testing.T) {
	e := NewEngine(addNumbersRegistry(), "test", "0.0.0")
	resp := e.Dispatch(context.Background(), &Request{ID: 1, Method: "tools/call", Params: map[string]interface{}{"name": "missing"}}, ProtocolVersion20250618)
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidParams {
		t.Fatalf("expected invalid params error for unknown tool, got %+v", resp)
	}
}

func TestEngine_ToolsCallSuccess(t *testing.T) {
	e := NewEngine(addNumbersRegistry(), "test", "0.0.0")
	params := map[string]interface{}{"name": "add_numbers", "arguments": map[string]interface{}{"a": 2.0, "b": 3.0}}
	resp := e.Dispatch(context.Background(), &Request{ID: 1, Method: "tools/call", Params: params}, ProtocolVersion20250618)
	if resp.Error != nil {
		t.Fatalf("expected success, got error %+v", resp.Error)
	}
	result := resp.Result.(ToolResult)
	if result.IsError {
		t.Fatalf("expected isError=false, got %+v", result)
	}
	if result.StructuredContent == nil {
		t.Fatal("expected structuredContent to be set at 2025-06-18")
	}
}

func TestEngine_ToolsCallHandlerErrorBecomesIsError(t *testing.T) {
	r := NewRegistry()
	r.RegisterTool(NewTool("fails", "always fails"), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		return nil, NewToolError("bad input")
	}, 0)
	e := NewEngine(r, "test", "0.0.0")

	resp := e.Dispatch(context.Background(), &Request{ID: 1, Method: "tools/call", Params: map[string]interface{}{"name": "fails"}}, ProtocolVersion20250618)
	if resp.Error != nil {
		t.Fatalf("tool errors must not become JSON-RPC errors, got %+v", resp.Error)
	}
	result := resp.Result.(ToolResult)
	if !result.IsError {
		t.Fatal("expected isError=true")
	}
	if result.Content[0].Text != "bad input" {
		t.Fatalf("expected tool error text, got %+v", result.Content)
	}
}
