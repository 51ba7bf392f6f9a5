// Package embedder converts text into vector embeddings for similarity
// search. Embedding is treated as an external capability: implementations
// call out to a model server and return pre-computed vectors that the vector
// package stores verbatim.
package embedder

import (
	"context"
	"fmt"

	"github.com/syllabuslabs/syllabus/config"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	// Embed converts a single text to a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts in one request where the backend
	// supports it.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension.
	Dimension() int

	// Name returns the provider name.
	Name() string
}

// New creates an embedder from configuration.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	switch cfg.Type {
	case "ollama":
		return NewOllamaEmbedder(cfg)
	case "openai":
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedder type: %s", cfg.Type)
	}
}
