package mcp

import "encoding/json"

// ValidationOutcome classifies a raw message.
type ValidationOutcome int

const (
	// Unparseable means the bytes are not valid JSON at all.
	Unparseable ValidationOutcome = iota
	// Malformed means the JSON decoded but isn't a well-formed JSON-RPC 2.0
	// request; Code carries the JSON-RPC error code to report.
	Malformed
	// WellFormed means the message decoded into a usable Request.
	WellFormed
)

// Validate parses a single JSON-RPC 2.0 message and classifies it. It does
// not interpret id, params, or method semantics beyond presence and type
// — that is the Session Lifecycle's and Protocol Engine's job.
func Validate(data []byte) (*Request, ValidationOutcome, int) {
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, Unparseable, 0
	}

	raw, isObject := decoded.(map[string]interface{})
	if !isObject {
		return nil, Malformed, ErrCodeInvalidRequest
	}

	jsonrpc, _ := raw["jsonrpc"].(string)
	if jsonrpc != "2.0" {
		return nil, Malformed, ErrCodeInvalidRequest
	}

	method, ok := raw["method"].(string)
	if !ok || method == "" {
		return nil, Malformed, ErrCodeInvalidRequest
	}

	if params, present := raw["params"]; present && params != nil {
		if _, isObject := params.(map[string]interface{}); !isObject {
			return nil, Malformed, ErrCodeInvalidRequest
		}
	}

	req := &Request{
		JSONRPC: jsonrpc,
		Method:  method,
		Params:  raw["params"],
	}
	if id, present := raw["id"]; present {
		req.ID = id
	}

	return req, WellFormed, 0
}
