package reasoners

import (
	"encoding/json"
	"fmt"
)

// Tool is a callable tool exposed to a reasoning backend through the declared
// catalog. Execute runs the registered handler against the backend-provided
// JSON arguments.
type Tool struct {
	Type     string
	Function ToolFunction

	execute func(arguments string) (string, error)
}

// ToolFunction describes a tool to the reasoning backend.
type ToolFunction struct {
	Name        string
	Description string
	Parameters  Parameters
}

// Parameters is the JSON-schema-shaped parameter declaration of a tool.
type Parameters struct {
	Type       string                   `json:"type"`
	Properties map[string]ParameterBase `json:"properties"`
	Required   []string                 `json:"required,omitempty"`
}

// ParameterBase describes a single tool parameter.
type ParameterBase struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type ToolOptions struct {
	Required []string
}

type ToolOption func(*ToolOptions)

// WithRequiredParameters marks the named parameters as required in the tool's
// declared schema.
func WithRequiredParameters(names ...string) ToolOption {
	return func(o *ToolOptions) {
		o.Required = append(o.Required, names...)
	}
}

// NewTool creates a tool with a typed handler. The handler's parameter struct
// is filled by unmarshalling the backend-provided JSON arguments; json tags on
// the struct must match the declared parameter names.
func NewTool[T any](name, description string, parameters map[string]ParameterBase, execute func(T) (string, error), opts ...ToolOption) Tool {
	options := ToolOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters: Parameters{
				Type:       "object",
				Properties: parameters,
				Required:   options.Required,
			},
		},
		execute: func(arguments string) (string, error) {
			var params T
			if arguments != "" {
				if err := json.Unmarshal([]byte(arguments), &params); err != nil {
					return "", fmt.Errorf("invalid tool arguments: %w", err)
				}
			}
			return execute(params)
		},
	}
}

// Execute runs the tool's handler against the passed JSON arguments.
func (t Tool) Execute(arguments string) (string, error) {
	if t.execute == nil {
		return "", fmt.Errorf("tool %q has no handler", t.Function.Name)
	}

	return t.execute(arguments)
}
