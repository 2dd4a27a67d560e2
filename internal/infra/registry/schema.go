package registry

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

// compileSchema builds the closed object schema for a tool's parameters.
func compileSchema(desc domain.ToolDescriptor) (*jsonschema.Schema, error) {
	schema := &jsonschema.Schema{
		Type:                 "object",
		Properties:           make(map[string]*jsonschema.Schema, len(desc.Params)),
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
	for _, param := range desc.Params {
		if param.Name == "" {
			return nil, fmt.Errorf("tool %s: parameter name is empty", desc.Name)
		}
		if _, dup := schema.Properties[param.Name]; dup {
			return nil, fmt.Errorf("tool %s: duplicate parameter %s", desc.Name, param.Name)
		}
		prop, err := paramSchema(param)
		if err != nil {
			return nil, fmt.Errorf("tool %s: parameter %s: %w", desc.Name, param.Name, err)
		}
		schema.Properties[param.Name] = prop
		if param.Required {
			schema.Required = append(schema.Required, param.Name)
		}
	}
	return schema, nil
}

func paramSchema(param domain.ToolParam) (*jsonschema.Schema, error) {
	prop := &jsonschema.Schema{
		Type:        string(param.Type),
		Description: param.Description,
		Minimum:     param.Minimum,
		Maximum:     param.Maximum,
	}
	switch param.Type {
	case domain.ParamString, domain.ParamInteger, domain.ParamNumber, domain.ParamBoolean, domain.ParamObject:
	case domain.ParamArray:
		prop.Items = &jsonschema.Schema{}
	default:
		return nil, fmt.Errorf("unsupported type %q", param.Type)
	}
	for _, value := range param.Enum {
		prop.Enum = append(prop.Enum, value)
	}
	if param.Default != nil {
		if param.Required {
			return nil, fmt.Errorf("required parameter has a default")
		}
		raw, err := json.Marshal(param.Default)
		if err != nil {
			return nil, fmt.Errorf("encode default: %w", err)
		}
		prop.Default = raw
	}
	return prop, nil
}
