// Package tools defines the tool abstraction offered to the LLM and the
// concrete course tools. Tools never return Go errors from execution:
// failures are folded into the result content so the model can read and
// relay them.
package tools

import (
	"context"

	"github.com/syllabuslabs/syllabus/llms"
	"github.com/syllabuslabs/syllabus/models"
)

// ToolParameter describes one parameter of a tool.
type ToolParameter struct {
	Name        string
	Type        string // JSON Schema type: "string", "integer", ...
	Description string
	Required    bool
}

// ToolInfo describes a tool for registration and LLM exposure.
type ToolInfo struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// ToolResult is the outcome of a tool execution. Sources carry the
// citations backing the content; the orchestrator aggregates them per turn.
type ToolResult struct {
	Content string
	Sources []models.Source
}

// Tool is a capability the LLM can invoke during generation.
type Tool interface {
	Info() ToolInfo
	Execute(ctx context.Context, args map[string]any) ToolResult
}

// Definition converts a ToolInfo to the LLM wire representation.
func Definition(info ToolInfo) llms.ToolDefinition {
	properties := make(map[string]any, len(info.Parameters))
	required := make([]string, 0)
	for _, p := range info.Parameters {
		properties[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return llms.ToolDefinition{
		Name:        info.Name,
		Description: info.Description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
