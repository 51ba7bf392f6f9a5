// Package config provides configuration types and utilities for the syllabus
// engine. A single YAML file is the entry point for all configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Vector   VectorConfig   `yaml:"vector,omitempty"`
	Search   SearchConfig   `yaml:"search,omitempty"`
	Session  SessionConfig  `yaml:"session,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
}

// LLMConfig configures the generation provider.
type LLMConfig struct {
	Type        string  `yaml:"type"`        // "anthropic", "openai", "ollama"
	Model       string  `yaml:"model"`       // Model name
	APIKey      string  `yaml:"api_key"`     // API key (supports ${VAR} expansion)
	Host        string  `yaml:"host"`        // Custom API host
	Temperature float64 `yaml:"temperature"` // Sampling temperature
	MaxTokens   int     `yaml:"max_tokens"`  // Output token ceiling
	Timeout     int     `yaml:"timeout"`     // Request timeout in seconds
}

// SetDefaults implements defaults for LLMConfig.
//
// Temperature deliberately defaults to 0: answers over a fixed corpus should
// be deterministic across identical turns.
func (c *LLMConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "anthropic"
	}
	if c.Model == "" {
		switch c.Type {
		case "anthropic":
			c.Model = "claude-sonnet-4-20250514"
		case "openai":
			c.Model = "gpt-4o-mini"
		case "ollama":
			c.Model = "llama3.1"
		}
	}
	if c.APIKey == "" {
		switch c.Type {
		case "anthropic":
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	} else {
		c.APIKey = expandEnvVars(c.APIKey)
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 800
	}
	if c.Timeout == 0 {
		c.Timeout = 120
	}
}

// Validate implements validation for LLMConfig.
func (c *LLMConfig) Validate() error {
	switch c.Type {
	case "anthropic", "openai":
		if c.APIKey == "" {
			return fmt.Errorf("api_key is required for %s", c.Type)
		}
	case "ollama":
	default:
		return fmt.Errorf("unsupported llm type: %s", c.Type)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	return nil
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	Type      string `yaml:"type"`      // "ollama", "openai"
	Model     string `yaml:"model"`     // Embedding model name
	APIKey    string `yaml:"api_key"`   // API key (for OpenAI)
	Host      string `yaml:"host"`      // Custom API host
	Dimension int    `yaml:"dimension"` // Vector dimension (0 = model default)
	Timeout   int    `yaml:"timeout"`   // Request timeout in seconds
}

// SetDefaults implements defaults for EmbedderConfig.
func (c *EmbedderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "ollama"
	}
	if c.Model == "" {
		switch c.Type {
		case "ollama":
			c.Model = "nomic-embed-text"
		case "openai":
			c.Model = "text-embedding-3-small"
		}
	}
	if c.APIKey == "" {
		if c.Type == "openai" {
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	} else {
		c.APIKey = expandEnvVars(c.APIKey)
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

// Validate implements validation for EmbedderConfig.
func (c *EmbedderConfig) Validate() error {
	switch c.Type {
	case "ollama":
	case "openai":
		if c.APIKey == "" {
			return fmt.Errorf("api_key is required for openai embedder")
		}
	default:
		return fmt.Errorf("unsupported embedder type: %s", c.Type)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

// VectorConfig configures the vector store backend.
type VectorConfig struct {
	Type string `yaml:"type"` // "chromem", "qdrant"

	// Chromem options.
	PersistPath string `yaml:"persist_path,omitempty"`
	Compress    bool   `yaml:"compress,omitempty"`

	// Qdrant options.
	Host   string `yaml:"host,omitempty"`
	Port   int    `yaml:"port,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
	UseTLS bool   `yaml:"use_tls,omitempty"`
}

// SetDefaults implements defaults for VectorConfig.
func (c *VectorConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "chromem"
	}
	if c.Type == "qdrant" {
		if c.Host == "" {
			c.Host = "localhost"
		}
		if c.Port == 0 {
			c.Port = 6334
		}
	}
	c.APIKey = expandEnvVars(c.APIKey)
}

// Validate implements validation for VectorConfig.
func (c *VectorConfig) Validate() error {
	switch c.Type {
	case "chromem", "qdrant":
		return nil
	default:
		return fmt.Errorf("unsupported vector type: %s", c.Type)
	}
}

// SearchConfig configures retrieval and ingestion.
type SearchConfig struct {
	MaxResults   int    `yaml:"max_results"`   // Default similarity search limit
	ChunkSize    int    `yaml:"chunk_size"`    // Chunk budget in tokens
	ChunkOverlap int    `yaml:"chunk_overlap"` // Overlap budget in tokens
	DocsFolder   string `yaml:"docs_folder"`   // Course transcript folder
}

// SetDefaults implements defaults for SearchConfig.
func (c *SearchConfig) SetDefaults() {
	if c.MaxResults == 0 {
		c.MaxResults = 5
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 200
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 25
	}
	if c.DocsFolder == "" {
		c.DocsFolder = "./docs"
	}
}

// Validate implements validation for SearchConfig.
func (c *SearchConfig) Validate() error {
	if c.MaxResults < 1 {
		return fmt.Errorf("max_results must be positive")
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be non-negative and smaller than chunk_size")
	}
	return nil
}

// SessionConfig configures conversation history.
type SessionConfig struct {
	MaxHistory int `yaml:"max_history"` // Exchanges (user+assistant pairs) kept per session
}

// SetDefaults implements defaults for SessionConfig.
func (c *SessionConfig) SetDefaults() {
	if c.MaxHistory == 0 {
		c.MaxHistory = 2
	}
}

// Validate implements validation for SessionConfig.
func (c *SessionConfig) Validate() error {
	if c.MaxHistory < 1 {
		return fmt.Errorf("max_history must be positive")
	}
	return nil
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SetDefaults implements defaults for ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8000
	}
}

// Validate implements validation for ServerConfig.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.LLM.SetDefaults()
	c.Embedder.SetDefaults()
	c.Vector.SetDefaults()
	c.Search.SetDefaults()
	c.Session.SetDefaults()
	c.Server.SetDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Embedder.Validate(); err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	if err := c.Vector.Validate(); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Load reads a YAML config file, applies defaults and validates the result.
// An empty path yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
