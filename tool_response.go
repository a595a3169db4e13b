package mcp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ToolResponse is what a ToolHandler returns; the engine converts it into
// a ToolResult (adding IsError) and applies version shaping before it
// reaches the wire.
type ToolResponse struct {
	Content           []ContentPart
	StructuredContent interface{}
}

// NewToolResponseText builds a single text content part.
func NewToolResponseText(text string) *ToolResponse {
	return &ToolResponse{Content: []ContentPart{{Type: "text", Text: text}}}
}

// NewToolResponseJSON marshals data to JSON and returns it as text content.
// Use NewToolResponseStructured instead when the tool declares an
// OutputSchema and the client may be on protocol 2025-06-18.
func NewToolResponseJSON(data interface{}) *ToolResponse {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return NewToolResponseText(fmt.Sprintf("error marshaling data: %v", err))
	}
	return NewToolResponseText(string(jsonData))
}

// NewToolResponseImage base64-encodes raw image bytes into a content part.
func NewToolResponseImage(data []byte, mimeType string) *ToolResponse {
	return &ToolResponse{Content: []ContentPart{{Type: "image", Data: base64.StdEncoding.EncodeToString(data), MimeType: mimeType}}}
}

// NewToolResponseAudio base64-encodes raw audio bytes into a content part.
func NewToolResponseAudio(data []byte, mimeType string) *ToolResponse {
	return &ToolResponse{Content: []ContentPart{{Type: "audio", Data: base64.StdEncoding.EncodeToString(data), MimeType: mimeType}}}
}

// NewToolResponseStructured pairs text content with structuredContent.
// Any tool declaring OutputSchema must also return unstructured content
// so that shaping under older protocol versions never yields an empty
// response; callers should prefer this over setting StructuredContent
// alone.
func NewToolResponseStructured(text string, data interface{}) *ToolResponse {
	return &ToolResponse{
		Content:           []ContentPart{{Type: "text", Text: text}},
		StructuredContent: data,
	}
}
