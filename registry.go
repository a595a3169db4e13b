package mcp

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// ToolHandler is the host-supplied invocation function for a tool,
// paired with its descriptor at registration time.
type ToolHandler func(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

// registeredTool pairs a descriptor with its handler and optional timing
// hint.
type registeredTool struct {
	descriptor ToolDescriptor
	handler    ToolHandler
	timingHint int
}

// Registry is the Tool Registry component: an explicit registration table
// populated by RegisterTool/RegisterEndpoint calls the host makes before
// running a transport.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]*registeredTool
	endpoints map[string]http.HandlerFunc
}

// NewRegistry creates an empty Tool Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]*registeredTool),
		endpoints: make(map[string]http.HandlerFunc),
	}
}

// RegisterTool registers a tool descriptor and its invocation function.
// timingHintSeconds is the tool's optional long-running hint; pass 0 if
// the tool has none.
func (r *Registry) RegisterTool(tool *ToolBuilder, handler ToolHandler, timingHintSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = &registeredTool{
		descriptor: tool.Descriptor(),
		handler:    handler,
		timingHint: timingHintSeconds,
	}
}

// RegisterEndpoint registers a custom HTTP endpoint handler under path.
// The handler is responsible for its own method policing.
func (r *Registry) RegisterEndpoint(path string, handler http.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[path] = handler
}

// ListTools returns every registered tool descriptor, sorted by Name.
func (r *Registry) ListTools() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDescriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasTool reports whether name is registered.
func (r *Registry) HasTool(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Invoke calls the host function registered under name. The registry does
// not validate arguments against the declared input schema — that is the
// tool's own responsibility.
func (r *Registry) Invoke(ctx context.Context, name string, arguments map[string]interface{}) (*ToolResponse, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownTool
	}
	resp, err := t.handler(ctx, NewToolRequest(arguments))
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}
	return resp, nil
}

// ListCustomEndpoints yields path -> handler for every host-defined HTTP
// endpoint outside the core MCP endpoint.
func (r *Registry) ListCustomEndpoints() map[string]http.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]http.HandlerFunc, len(r.endpoints))
	for k, v := range r.endpoints {
		out[k] = v
	}
	return out
}

// MaxToolTiming returns the largest timing hint among registered tools,
// or 0 if none declared one.
func (r *Registry) MaxToolTiming() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := 0
	for _, t := range r.tools {
		if t.timingHint > max {
			max = t.timingHint
		}
	}
	return max
}
