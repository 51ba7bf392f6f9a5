package tools

import (
	"context"
	"fmt"

	"github.com/syllabuslabs/syllabus/llms"
)

// Registry holds the tools available to the generation loop and dispatches
// invocations by name. Arguments are validated against the declared
// parameter schema before a tool runs; violations come back as error-text
// results so the model can correct itself.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Registering the same name twice is an error.
func (r *Registry) Register(tool Tool) error {
	name := tool.Info().Name
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Definitions returns tool definitions in registration order.
func (r *Registry) Definitions() []llms.ToolDefinition {
	defs := make([]llms.ToolDefinition, 0, len(r.tools))
	for _, name := range r.order {
		defs = append(defs, Definition(r.tools[name].Info()))
	}
	return defs
}

// Execute dispatches a tool invocation. Unknown names and argument schema
// violations produce error-text results, never Go errors.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) ToolResult {
	tool, ok := r.tools[name]
	if !ok {
		return ToolResult{Content: fmt.Sprintf("Tool '%s' not found", name)}
	}

	if msg := validateArgs(tool.Info(), args); msg != "" {
		return ToolResult{Content: msg}
	}

	return tool.Execute(ctx, args)
}

// validateArgs checks presence and basic types against the declared
// parameters. Returns an error message, or "" when valid.
func validateArgs(info ToolInfo, args map[string]any) string {
	declared := make(map[string]ToolParameter, len(info.Parameters))
	for _, p := range info.Parameters {
		declared[p.Name] = p
		if p.Required {
			v, ok := args[p.Name]
			if !ok || v == nil {
				return fmt.Sprintf("Tool '%s' requires parameter '%s'", info.Name, p.Name)
			}
			if s, isStr := v.(string); isStr && s == "" {
				return fmt.Sprintf("Tool '%s' requires parameter '%s'", info.Name, p.Name)
			}
		}
	}

	for name, value := range args {
		p, ok := declared[name]
		if !ok {
			return fmt.Sprintf("Tool '%s' does not accept parameter '%s'", info.Name, name)
		}
		if value == nil {
			continue
		}
		switch p.Type {
		case "string":
			if _, ok := value.(string); !ok {
				return fmt.Sprintf("Parameter '%s' of tool '%s' must be a string", name, info.Name)
			}
		case "integer":
			switch value.(type) {
			case int, int64, float64, string:
				// strings are tolerated; tools parse them leniently
			default:
				return fmt.Sprintf("Parameter '%s' of tool '%s' must be an integer", name, info.Name)
			}
		}
	}

	return ""
}
