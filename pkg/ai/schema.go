package ai

import "encoding/json"

type SchemaType string

const (
	TypeObject SchemaType = "OBJECT"
	TypeArray  SchemaType = "ARRAY"
	TypeString SchemaType = "STRING"
)

// Schema is the structured-output subset understood by the Gemini API.
// JSONSchema renders the same shape as a standard JSON Schema document for
// providers that expect one.
type Schema struct {
	Type       SchemaType         `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
	Enum       []string           `json:"enum,omitempty"`
}

// Object builds an OBJECT schema.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

// ArrayOf builds an ARRAY schema with the given item schema.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

// String builds a STRING schema, optionally restricted to enum values.
func String(enum ...string) *Schema {
	return &Schema{Type: TypeString, Enum: enum}
}

// JSONSchema converts s to a lower-case JSON Schema map.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{}
	switch s.Type {
	case TypeObject:
		out["type"] = "object"
	case TypeArray:
		out["type"] = "array"
	default:
		out["type"] = "string"
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.JSONSchema()
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	return out
}

// Describe renders s as indented JSON Schema text for prompt instructions.
func (s *Schema) Describe() string {
	data, err := json.MarshalIndent(s.JSONSchema(), "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
