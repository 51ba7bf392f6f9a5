package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, "anthropic", cfg.LLM.Type)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.0, cfg.LLM.Temperature)

	assert.Equal(t, "ollama", cfg.Embedder.Type)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Model)

	assert.Equal(t, "chromem", cfg.Vector.Type)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 200, cfg.Search.ChunkSize)
	assert.Equal(t, 25, cfg.Search.ChunkOverlap)
	assert.Equal(t, 2, cfg.Session.MaxHistory)
	assert.Equal(t, 8000, cfg.Server.Port)

	require.NoError(t, cfg.Validate())
}

func TestQdrantDefaults(t *testing.T) {
	cfg := VectorConfig{Type: "qdrant"}
	cfg.SetDefaults()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6334, cfg.Port)
}

func TestLLMValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LLMConfig)
		wantErr string
	}{
		{"missing api key", func(c *LLMConfig) { c.APIKey = "" }, "api_key is required"},
		{"bad type", func(c *LLMConfig) { c.Type = "cohere" }, "unsupported llm type"},
		{"temperature too high", func(c *LLMConfig) { c.Temperature = 3 }, "temperature"},
		{"negative max tokens", func(c *LLMConfig) { c.MaxTokens = -1 }, "max_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LLMConfig{Type: "anthropic", Model: "m", APIKey: "k", MaxTokens: 800}
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOllamaNeedsNoKey(t *testing.T) {
	cfg := LLMConfig{Type: "ollama", Model: "llama3.1"}
	require.NoError(t, cfg.Validate())
}

func TestSearchValidation(t *testing.T) {
	cfg := SearchConfig{MaxResults: 5, ChunkSize: 100, ChunkOverlap: 100}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SYL_TEST_VAR", "secret")

	assert.Equal(t, "secret", expandEnvVars("${SYL_TEST_VAR}"))
	assert.Equal(t, "secret", expandEnvVars("${SYL_TEST_VAR:-fallback}"))
	assert.Equal(t, "fallback", expandEnvVars("${SYL_UNSET_VAR:-fallback}"))
	assert.Equal(t, "", expandEnvVars("${SYL_UNSET_VAR}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("SYL_TEST_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
llm:
  type: anthropic
  model: claude-sonnet-4-20250514
  api_key: ${SYL_TEST_KEY}
search:
  max_results: 3
server:
  port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Unset sections still get defaults.
	assert.Equal(t, "chromem", cfg.Vector.Type)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
