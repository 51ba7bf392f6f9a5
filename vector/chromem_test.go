package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabuslabs/syllabus/config"
)

func configFor(typ string) config.VectorConfig {
	return config.VectorConfig{Type: typ}
}

func unit(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func TestChromemUpsertAndSearch(t *testing.T) {
	p, err := NewChromemProvider(ChromemConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Upsert(ctx, "c", "a", unit(4, 0), map[string]any{"content": "doc a", "kind": "x"}))
	require.NoError(t, p.Upsert(ctx, "c", "b", unit(4, 1), map[string]any{"content": "doc b", "kind": "y"}))

	results, err := p.Search(ctx, "c", unit(4, 0), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "doc a", results[0].Content)
	assert.InDelta(t, 1.0, float64(results[0].Score), 0.001)
}

func TestChromemTopKClamped(t *testing.T) {
	p, err := NewChromemProvider(ChromemConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Upsert(ctx, "c", "a", unit(4, 0), map[string]any{"content": "doc a"}))

	// topK larger than the collection must not error.
	results, err := p.Search(ctx, "c", unit(4, 0), 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChromemEmptyCollection(t *testing.T) {
	p, err := NewChromemProvider(ChromemConfig{})
	require.NoError(t, err)

	results, err := p.Search(context.Background(), "empty", unit(4, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	count, err := p.Count(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestChromemMetadataFilterAndStringification(t *testing.T) {
	p, err := NewChromemProvider(ChromemConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Upsert(ctx, "c", "a", unit(4, 0), map[string]any{"content": "doc a", "lesson_number": 1}))
	require.NoError(t, p.Upsert(ctx, "c", "b", unit(4, 1), map[string]any{"content": "doc b", "lesson_number": 2}))

	results, err := p.SearchWithFilter(ctx, "c", unit(4, 0), 2, map[string]any{"lesson_number": 2})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)

	// chromem stores metadata as strings; callers must expect "2", not 2.
	assert.Equal(t, "2", results[0].Metadata["lesson_number"])
}

func TestChromemCountAndDeleteCollection(t *testing.T) {
	p, err := NewChromemProvider(ChromemConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Upsert(ctx, "c", "a", unit(4, 0), map[string]any{"content": "doc a"}))
	require.NoError(t, p.Upsert(ctx, "c", "b", unit(4, 1), map[string]any{"content": "doc b"}))

	count, err := p.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, p.DeleteCollection(ctx, "c"))

	count, err = p.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestChromemUpsertOverwrites(t *testing.T) {
	p, err := NewChromemProvider(ChromemConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Upsert(ctx, "c", "a", unit(4, 0), map[string]any{"content": "old"}))
	require.NoError(t, p.Upsert(ctx, "c", "a", unit(4, 0), map[string]any{"content": "new"}))

	count, err := p.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := p.Search(ctx, "c", unit(4, 0), 1)
	require.NoError(t, err)
	assert.Equal(t, "new", results[0].Content)
}

func TestChromemPersistenceSurvivesReopen(t *testing.T) {
	cfg := ChromemConfig{PersistPath: t.TempDir()}
	ctx := context.Background()

	p, err := NewChromemProvider(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Upsert(ctx, "c", "a", unit(4, 0), map[string]any{"content": "doc a", "lesson_number": 1}))
	require.NoError(t, p.Close())

	reopened, err := NewChromemProvider(cfg)
	require.NoError(t, err)

	count, err := reopened.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := reopened.Search(ctx, "c", unit(4, 0), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc a", results[0].Content)
	assert.Equal(t, "1", results[0].Metadata["lesson_number"])
}

func TestProviderFactory(t *testing.T) {
	p, err := New(configFor("chromem"))
	require.NoError(t, err)
	assert.Equal(t, "chromem", p.Name())

	_, err = New(configFor("weaviate"))
	require.Error(t, err)
}
