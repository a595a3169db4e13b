package mcp

import (
	"errors"
	"fmt"
)

// ErrUnknownParameter is returned by ToolRequest accessors when the named
// argument was not supplied.
var ErrUnknownParameter = errors.New("parameter not found")

// ErrUnknownTool is returned by Registry.Invoke when the named tool was
// never registered. The engine checks HasTool first and answers an
// unknown tool with a JSON-RPC invalid-params error instead.
var ErrUnknownTool = errors.New("unknown tool")

// JSON-RPC 2.0 / MCP error codes used throughout the engine and lifecycle.
// See https://www.jsonrpc.org/specification#error_object.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ToolError is returned by a tool handler to signal that the tool call
// result should carry isError:true with the given text, rather than
// failing the JSON-RPC envelope itself.
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

// NewToolError builds a ToolError; it never escapes as a JSON-RPC-level
// error, only as an isError:true tool result.
func NewToolError(format string, args ...interface{}) error {
	return &ToolError{Message: fmt.Sprintf(format, args...)}
}
