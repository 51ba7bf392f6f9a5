package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoTool is a trivial tool for registry tests.
type echoTool struct {
	name string
}

func (t echoTool) Info() ToolInfo {
	return ToolInfo{
		Name:        t.name,
		Description: "echoes its input",
		Parameters: []ToolParameter{
			{Name: "text", Type: "string", Description: "text to echo", Required: true},
			{Name: "repeat", Type: "integer", Description: "repeat count"},
		},
	}
}

func (t echoTool) Execute(_ context.Context, args map[string]any) ToolResult {
	text, _ := args["text"].(string)
	return ToolResult{Content: text}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool{name: "echo"}))

	err := r.Register(echoTool{name: "echo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestDefinitionsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool{name: "first"}))
	require.NoError(t, r.Register(echoTool{name: "second"}))

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "first", defs[0].Name)
	assert.Equal(t, "second", defs[1].Name)
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()

	result := r.Execute(context.Background(), "missing", nil)
	assert.Equal(t, "Tool 'missing' not found", result.Content)
}

func TestExecuteValidArgs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool{name: "echo"}))

	result := r.Execute(context.Background(), "echo", map[string]any{"text": "hello"})
	assert.Equal(t, "hello", result.Content)
}

func TestExecuteValidatesArgs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool{name: "echo"}))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing required", map[string]any{}, "Tool 'echo' requires parameter 'text'"},
		{"empty required string", map[string]any{"text": ""}, "Tool 'echo' requires parameter 'text'"},
		{"undeclared parameter", map[string]any{"text": "x", "bogus": 1}, "Tool 'echo' does not accept parameter 'bogus'"},
		{"wrong string type", map[string]any{"text": 42}, "Parameter 'text' of tool 'echo' must be a string"},
		{"wrong integer type", map[string]any{"text": "x", "repeat": true}, "Parameter 'repeat' of tool 'echo' must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := r.Execute(context.Background(), "echo", tt.args)
			assert.Equal(t, tt.want, result.Content)
		})
	}
}

func TestExecuteToleratesNumericStrings(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool{name: "echo"}))

	result := r.Execute(context.Background(), "echo", map[string]any{"text": "x", "repeat": "2"})
	assert.Equal(t, "x", result.Content)
}
