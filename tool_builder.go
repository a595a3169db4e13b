package mcp

import "strings"

// ToolBuilder provides the declarative API for building a tool descriptor
// from typed Parameter values (see api.go). It is the Go-native stand-in
// building a tool's descriptor from typed parameters.
type ToolBuilder struct {
	name         string
	description  string
	title        string
	params       []paramDef
	outputParams []paramDef
	annotations  map[string]interface{}
}

type paramDef struct {
	name        string
	paramType   string
	description string
	required    bool
	properties  map[string]*paramDef // For object types
	itemSchema  *paramDef            // For array types with complex items
}

func (t *ToolBuilder) buildSchema() map[string]interface{} {
	return t.buildSchemaFromParams(t.params)
}

func (t *ToolBuilder) buildOutputSchema() map[string]interface{} {
	if len(t.outputParams) == 0 {
		return nil
	}
	return t.buildSchemaFromParams(t.outputParams)
}

// Name returns the tool's name.
func (t *ToolBuilder) Name() string {
	return t.name
}

// Description returns the tool's description with newlines and tabs
// normalized to spaces and runs of whitespace collapsed.
func (t *ToolBuilder) Description() string {
	desc := strings.ReplaceAll(t.description, "\n", " ")
	desc = strings.ReplaceAll(desc, "\t", " ")
	words := strings.Fields(desc)
	return strings.Join(words, " ")
}

// Title sets the optional human-facing title.
// Stripped from the wire descriptor under protocol versions before
// 2025-06-18 by the engine's version shaping.
func (t *ToolBuilder) Title(title string) *ToolBuilder {
	t.title = title
	return t
}

// Annotations attaches host-supplied hints (e.g. readOnlyHint,
// destructiveHint) that pass through to the wire descriptor untouched.
func (t *ToolBuilder) Annotations(annotations map[string]interface{}) *ToolBuilder {
	t.annotations = annotations
	return t
}

// BuildSchema returns the JSON Schema for the tool's input parameters.
func (t *ToolBuilder) BuildSchema() map[string]interface{} {
	return t.buildSchema()
}

// BuildOutputSchema returns the JSON Schema for the tool's structured
// output, or nil if none was declared with Output().
func (t *ToolBuilder) BuildOutputSchema() map[string]interface{} {
	return t.buildOutputSchema()
}

// Descriptor renders the wire-visible ToolDescriptor for this builder.
func (t *ToolBuilder) Descriptor() ToolDescriptor {
	return ToolDescriptor{
		Name:         t.name,
		Description:  t.Description(),
		Title:        t.title,
		InputSchema:  t.buildSchema(),
		OutputSchema: t.buildOutputSchema(),
		Annotations:  t.annotations,
	}
}

func (t *ToolBuilder) buildSchemaFromParams(params []paramDef) map[string]interface{} {
	properties := make(map[string]interface{})
	var required []string

	for _, param := range params {
		prop := t.buildParamSchema(&param)

		if param.description != "" {
			prop["description"] = param.description
		}
		properties[param.name] = prop
		if param.required {
			required = append(required, param.name)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (t *ToolBuilder) buildParamSchema(param *paramDef) map[string]interface{} {
	if strings.HasPrefix(param.paramType, "array:") {
		itemType := strings.TrimPrefix(param.paramType, "array:")

		var itemSchema map[string]interface{}
		if itemType == "object" && param.itemSchema != nil {
			itemSchema = t.buildObjectSchema(param.itemSchema)
		} else {
			itemSchema = map[string]interface{}{"type": itemType}
		}

		return map[string]interface{}{
			"type":  "array",
			"items": itemSchema,
		}
	} else if param.paramType == "object" {
		return t.buildObjectSchema(param)
	}
	return map[string]interface{}{"type": param.paramType}
}

func (t *ToolBuilder) buildObjectSchema(param *paramDef) map[string]interface{} {
	if len(param.properties) == 0 {
		return map[string]interface{}{
			"type":                 "object",
			"additionalProperties": true,
		}
	}

	properties := make(map[string]interface{})
	var required []string

	for propName, propDef := range param.properties {
		propSchema := t.buildParamSchema(propDef)
		if propDef.description != "" {
			propSchema["description"] = propDef.description
		}
		properties[propName] = propSchema
		if propDef.required {
			required = append(required, propName)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
