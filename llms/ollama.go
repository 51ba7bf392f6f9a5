package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/syllabuslabs/syllabus/config"
)

// OllamaProvider implements Provider for a local Ollama server using the
// /api/chat endpoint with tool support.
type OllamaProvider struct {
	config config.LLMConfig
	host   string
	client *http.Client
}

type ollamaChatMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

// ollamaToolCall carries function arguments as a decoded object, unlike
// OpenAI's string encoding.
type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Tools    []openaiTool        `json:"tools,omitempty"` // Ollama follows the OpenAI tool schema
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         ollamaChatMessage `json:"message"`
	Done            bool              `json:"done"`
	PromptEvalCount int               `json:"prompt_eval_count"`
	EvalCount       int               `json:"eval_count"`
	Error           string            `json:"error,omitempty"`
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg config.LLMConfig) (*OllamaProvider, error) {
	host := cfg.Host
	if host == "" {
		host = "http://localhost:11434"
	}

	return &OllamaProvider{
		config: cfg,
		host:   host,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}, nil
}

// ModelName returns the configured model name.
func (p *OllamaProvider) ModelName() string {
	return p.config.Model
}

// Close closes the provider.
func (p *OllamaProvider) Close() error {
	return nil
}

// Generate produces one response from the Ollama chat API.
func (p *OllamaProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error) {
	ollamaMessages := make([]ollamaChatMessage, 0, len(messages))
	for _, msg := range messages {
		m := ollamaChatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
		for _, tc := range msg.ToolCalls {
			var otc ollamaToolCall
			otc.Function.Name = tc.Name
			otc.Function.Arguments = tc.Arguments
			m.ToolCalls = append(m.ToolCalls, otc)
		}
		ollamaMessages = append(ollamaMessages, m)
	}

	request := ollamaChatRequest{
		Model:    p.config.Model,
		Messages: ollamaMessages,
		Stream:   false,
		Options: map[string]any{
			"temperature": p.config.Temperature,
			"num_predict": p.config.MaxTokens,
		},
	}
	for _, tool := range tools {
		request.Tools = append(request.Tools, openaiTool{
			Type: "function",
			Function: openaiFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response ollamaChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("Ollama API error: %s", response.Error)
	}

	out := &Response{
		Text:   response.Message.Content,
		Tokens: response.PromptEvalCount + response.EvalCount,
	}
	for i, tc := range response.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			// Ollama does not assign call IDs; synthesize stable ones
			ID:        fmt.Sprintf("call_%d", i),
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return out, nil
}

var _ Provider = (*OllamaProvider)(nil)
