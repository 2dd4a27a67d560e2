package domain

import (
	"context"
	"fmt"
	"math"
)

// ParamType is the JSON type of a tool argument.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

// ToolParam declares one argument of a tool.
type ToolParam struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Maximum     *float64  `json:"maximum,omitempty"`
}

// ToolDescriptor describes a tool exposed by the dispatcher.
type ToolDescriptor struct {
	Name        string      `json:"name"`
	Service     string      `json:"service"`
	Description string      `json:"description"`
	Params      []ToolParam `json:"params"`
}

// ToolHandler executes a tool with validated, defaulted arguments.
type ToolHandler func(ctx context.Context, args ToolArgs) (any, error)

// ToolBinding pairs a descriptor with its handler.
type ToolBinding struct {
	Descriptor ToolDescriptor
	Handler    ToolHandler
}

// Bound returns a pointer to a float bound for ToolParam limits.
func Bound(v float64) *float64 {
	return &v
}

// ToolArgs holds decoded tool arguments.
type ToolArgs map[string]any

func (a ToolArgs) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

func (a ToolArgs) String(name string) string {
	v, _ := a[name].(string)
	return v
}

func (a ToolArgs) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// OptBool returns nil when the argument is absent.
func (a ToolArgs) OptBool(name string) *bool {
	if !a.Has(name) {
		return nil
	}
	v := a.Bool(name)
	return &v
}

func (a ToolArgs) Int(name string) (int64, error) {
	switch v := a[name].(type) {
	case nil:
		return 0, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, E(KindValidation, "", fmt.Sprintf("%s must be an integer", name), ErrInvalidArgument)
		}
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, E(KindValidation, "", fmt.Sprintf("%s is out of range", name), ErrInvalidArgument)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, E(KindValidation, "", fmt.Sprintf("%s must be an integer", name), ErrInvalidArgument)
	}
}

// OptInt returns nil when the argument is absent.
func (a ToolArgs) OptInt(name string) (*int64, error) {
	if !a.Has(name) {
		return nil, nil
	}
	v, err := a.Int(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (a ToolArgs) Slice(name string) []any {
	v, _ := a[name].([]any)
	return v
}
