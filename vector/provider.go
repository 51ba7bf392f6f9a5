// Package vector abstracts vector storage backends behind a single Provider
// interface. Embeddings are computed externally and passed in pre-computed,
// so providers only store and search vectors.
package vector

import (
	"context"
	"fmt"

	"github.com/syllabuslabs/syllabus/config"
)

// Result represents a single search result.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]any
}

// Provider defines the interface for vector storage backends.
//
// Metadata filters are flat equality maps; multiple keys form a conjunction.
// Backends may store metadata values as strings, so readers of Result.Metadata
// must not assume numeric types survive a round trip.
type Provider interface {
	// Upsert adds or updates a document with its pre-computed vector.
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error

	// Search finds the topK most similar vectors.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)

	// SearchWithFilter combines similarity search with metadata filtering.
	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error)

	// Count returns the number of documents in a collection.
	// A collection that does not exist yet counts as empty.
	Count(ctx context.Context, collection string) (int, error)

	// DeleteCollection removes a collection and all its documents.
	DeleteCollection(ctx context.Context, collection string) error

	// Name returns the provider name.
	Name() string

	// Close releases resources.
	Close() error
}

// New creates a vector provider from configuration.
func New(cfg config.VectorConfig) (Provider, error) {
	switch cfg.Type {
	case "chromem":
		return NewChromemProvider(ChromemConfig{
			PersistPath: cfg.PersistPath,
			Compress:    cfg.Compress,
		})
	case "qdrant":
		return NewQdrantProvider(QdrantConfig{
			Host:   cfg.Host,
			Port:   cfg.Port,
			APIKey: cfg.APIKey,
			UseTLS: cfg.UseTLS,
		})
	default:
		return nil, fmt.Errorf("unsupported vector provider: %s", cfg.Type)
	}
}
