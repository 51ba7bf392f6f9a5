package docs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First sentence. Second one! Third?\nFourth without end")
	assert.Equal(t, []string{
		"First sentence.",
		"Second one!",
		"Third?",
		"Fourth without end",
	}, got)
}

func TestSplitSentencesNormalizesWhitespace(t *testing.T) {
	got := splitSentences("Hard\nwrapped   line. Next.")
	require.Len(t, got, 2)
	assert.Equal(t, "Hard wrapped line.", got[0])
}

func TestSplitSentencesEmpty(t *testing.T) {
	assert.Nil(t, splitSentences(""))
	assert.Nil(t, splitSentences("   \n  "))
}

func TestChunkerRejectsBadBudgets(t *testing.T) {
	_, err := NewChunker(0, 0)
	require.Error(t, err)

	_, err = NewChunker(100, 100)
	require.Error(t, err)
}

func TestChunkSingleSmallText(t *testing.T) {
	c, err := NewChunker(200, 25)
	require.NoError(t, err)

	chunks := c.Chunk("One short sentence. Another short sentence.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "One short sentence. Another short sentence.", chunks[0])
}

func TestChunkRespectsBudgetAndOverlaps(t *testing.T) {
	// Short sentences of a few tokens each, so a 12 token budget holds two
	// or three of them and the 6 token overlap covers exactly one.
	c, err := NewChunker(12, 6)
	require.NoError(t, err)

	text := "The cat sat down. A dog ran off. The bird flew away. A fish swam by."

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	// Every sentence survives somewhere; no sentence is split.
	joined := strings.Join(chunks, " ")
	for _, sentence := range splitSentences(text) {
		assert.Contains(t, joined, sentence)
	}

	// Consecutive chunks share the overlap sentence.
	assert.Contains(t, chunks[1], lastSentence(chunks[0]))
}

func lastSentence(chunk string) string {
	sentences := splitSentences(chunk)
	return sentences[len(sentences)-1]
}

func TestChunkOversizedSentence(t *testing.T) {
	c, err := NewChunker(5, 1)
	require.NoError(t, err)

	long := "This single sentence is comfortably longer than the five token budget allowed here."
	chunks := c.Chunk(long)
	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0])
}

func TestChunkEmpty(t *testing.T) {
	c, err := NewChunker(50, 5)
	require.NoError(t, err)
	assert.Nil(t, c.Chunk(""))
}
