// Package llms provides a provider-neutral interface to chat completion
// APIs with tool calling. Providers translate the neutral message and tool
// types to their wire formats and back.
package llms

import (
	"context"
	"fmt"

	"github.com/syllabuslabs/syllabus/config"
)

// Message represents a single conversation message.
//
// Roles follow the OpenAI convention: "system", "user", "assistant", "tool".
// An assistant message carrying ToolCalls records a tool request turn; a
// "tool" message carries one tool's output, keyed back by ToolCallID.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolDefinition describes a tool offered to the model.
// Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Response is the outcome of a single generation call. Exactly one of Text
// or ToolCalls is meaningful for control flow: a response with tool calls is
// a request for execution, not an answer.
type Response struct {
	Text      string
	ToolCalls []ToolCall
	Tokens    int
}

// HasToolCalls reports whether the model requested tool execution.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Provider generates responses from conversation messages.
type Provider interface {
	// Generate produces one response. Passing an empty tools slice
	// withholds tool use entirely.
	Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error)

	// ModelName returns the configured model name.
	ModelName() string

	// Close releases resources.
	Close() error
}

// NewProvider creates an LLM provider from configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Type {
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "openai":
		return NewOpenAIProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm type: %s", cfg.Type)
	}
}
