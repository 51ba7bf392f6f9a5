package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabuslabs/syllabus/config"
)

func TestOpenAIBuildRequestEncodesToolCallArguments(t *testing.T) {
	p, err := NewOpenAIProvider(config.LLMConfig{
		Type: "openai", Model: "gpt-4o-mini", APIKey: "k", MaxTokens: 800, Timeout: 5,
	})
	require.NoError(t, err)

	req := p.buildRequest([]Message{
		{Role: "assistant", ToolCalls: []ToolCall{
			{ID: "call_1", Name: "search_course_content", Arguments: map[string]any{"query": "mcp"}},
		}},
		{Role: "tool", Content: "results", ToolCallID: "call_1"},
	}, nil)

	require.Len(t, req.Messages, 2)
	require.Len(t, req.Messages[0].ToolCalls, 1)
	tc := req.Messages[0].ToolCalls[0]
	assert.Equal(t, "function", tc.Type)
	assert.JSONEq(t, `{"query":"mcp"}`, tc.Function.Arguments)
	assert.Equal(t, "call_1", req.Messages[1].ToolCallID)
}

func TestOpenAIGenerateToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"role":    "assistant",
						"content": "",
						"tool_calls": []map[string]any{
							{
								"id":   "call_abc",
								"type": "function",
								"function": map[string]any{
									"name":      "search_course_content",
									"arguments": `{"query": "embeddings", "lesson_number": 1}`,
								},
							},
						},
					},
				},
			},
			"usage": map[string]int{"prompt_tokens": 30, "completion_tokens": 12, "total_tokens": 42},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.LLMConfig{
		Type: "openai", Model: "gpt-4o-mini", APIKey: "k", Host: srv.URL, MaxTokens: 800, Timeout: 5,
	})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), []Message{{Role: "user", Content: "q"}},
		[]ToolDefinition{{Name: "search_course_content"}})
	require.NoError(t, err)

	require.True(t, resp.HasToolCalls())
	call := resp.ToolCalls[0]
	assert.Equal(t, "call_abc", call.ID)
	assert.Equal(t, "embeddings", call.Arguments["query"])
	assert.Equal(t, float64(1), call.Arguments["lesson_number"])
	assert.Equal(t, 42, resp.Tokens)
}

func TestProviderFactory(t *testing.T) {
	_, err := NewProvider(config.LLMConfig{Type: "unknown"})
	require.Error(t, err)

	p, err := NewProvider(config.LLMConfig{Type: "ollama", Model: "llama3.1", Timeout: 5})
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", p.ModelName())
}
