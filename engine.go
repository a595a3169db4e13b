package mcp

import (
	"context"
	"encoding/json"
	"errors"
)

// Engine is the Protocol Engine: the version-aware JSON-RPC dispatcher
// for every method except initialize, which the Session Lifecycle handles
// directly because it owns session creation.
type Engine struct {
	Registry *Registry
	Name     string
	Version  string
}

// NewEngine builds a Protocol Engine bound to registry, reporting name and
// version in the initialize result built by the Session Lifecycle.
func NewEngine(registry *Registry, name, version string) *Engine {
	return &Engine{Registry: registry, Name: name, Version: version}
}

// BuildInitializeResult constructs the initialize-result object for the
// given negotiated version.
func (e *Engine) BuildInitializeResult(negotiatedVersion string) InitializeResult {
	return InitializeResult{
		ProtocolVersion: negotiatedVersion,
		Capabilities:    capabilities{Tools: toolsCapability{ListChanged: false}},
		ServerInfo:      serverInfo{Name: e.Name, Version: e.Version},
	}
}

// Dispatch routes a validated, gated request to its method handler and
// applies version-dependent response shaping. It returns a nil *Response
// for notifications, which never produce a body.
func (e *Engine) Dispatch(ctx context.Context, req *Request, negotiatedVersion string) *Response {
	switch req.Method {
	case "ping":
		return newResult(req.ID, struct{}{})
	case "tools/list":
		return e.dispatchToolsList(req, negotiatedVersion)
	case "tools/call":
		return e.dispatchToolsCall(ctx, req, negotiatedVersion)
	default:
		if isNotificationMethod(req.Method) {
			return nil
		}
		return newError(req.ID, ErrCodeMethodNotFound, "Method not found", map[string]interface{}{"method": req.Method})
	}
}

func isNotificationMethod(method string) bool {
	return len(method) > len("notifications/") && method[:len("notifications/")] == "notifications/"
}

func (e *Engine) dispatchToolsList(req *Request, negotiatedVersion string) *Response {
	var params ToolsListParams
	if err := decodeParams(req.Params, &params); err != nil {
		return newError(req.ID, ErrCodeInvalidParams, "Invalid params", nil)
	}
	if params.Cursor != "" {
		return newError(req.ID, ErrCodeInvalidParams, "pagination is not supported", nil)
	}

	descriptors := e.Registry.ListTools()
	shaped := make([]ToolDescriptor, len(descriptors))
	for i, d := range descriptors {
		shaped[i] = shapeToolDescriptor(d, negotiatedVersion)
	}
	return newResult(req.ID, map[string]interface{}{"tools": shaped})
}

func (e *Engine) dispatchToolsCall(ctx context.Context, req *Request, negotiatedVersion string) *Response {
	var params ToolCallParams
	if err := decodeParams(req.Params, &params); err != nil {
		return newError(req.ID, ErrCodeInvalidParams, "Invalid params", nil)
	}
	if params.Name == "" {
		return newError(req.ID, ErrCodeInvalidParams, "tool name is required", nil)
	}
	if !e.Registry.HasTool(params.Name) {
		return newError(req.ID, ErrCodeInvalidParams, "unknown tool: "+params.Name, nil)
	}

	resp, err := e.Registry.Invoke(ctx, params.Name, params.Arguments)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			result := shapeToolResult(ToolResult{
				IsError: true,
				Content: []ContentPart{{Type: "text", Text: toolErr.Message}},
			}, negotiatedVersion)
			return newResult(req.ID, result)
		}
		result := shapeToolResult(ToolResult{
			IsError: true,
			Content: []ContentPart{{Type: "text", Text: err.Error()}},
		}, negotiatedVersion)
		return newResult(req.ID, result)
	}

	result := shapeToolResult(ToolResult{
		IsError:           false,
		Content:           resp.Content,
		StructuredContent: resp.StructuredContent,
	}, negotiatedVersion)
	return newResult(req.ID, result)
}

func decodeParams(params interface{}, target interface{}) error {
	if params == nil {
		return nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}
