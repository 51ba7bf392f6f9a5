package docs

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Chunker splits text into sentence-aligned chunks measured in tokens.
// Sentences are never split; consecutive chunks share trailing sentences up
// to the overlap budget so retrieval does not lose context at boundaries.
type Chunker struct {
	encoding  *tiktoken.Tiktoken
	chunkSize int
	overlap   int
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

// cl100kEncoding returns the shared cl100k_base encoding. Initialization
// downloads the vocabulary once and is expensive, so it is cached globally.
func cl100kEncoding() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoding, encodingErr
}

// NewChunker creates a chunker with the given token budgets.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be non-negative and smaller than chunk size")
	}

	enc, err := cl100kEncoding()
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding: %w", err)
	}

	return &Chunker{
		encoding:  enc,
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// countTokens returns the token count of text.
func (c *Chunker) countTokens(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

var sentenceEnd = regexp.MustCompile(`[.!?]+[\s"')\]]*`)

// splitSentences breaks text into sentences on terminal punctuation.
// Whitespace runs (including newlines) are normalized to single spaces
// first, so transcripts with hard line wraps chunk cleanly.
func splitSentences(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(normalized, -1) {
		sentence := strings.TrimSpace(normalized[start:loc[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(normalized[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// Chunk splits text into chunks within the token budget. A single sentence
// larger than the budget becomes its own oversized chunk rather than being
// split mid-sentence.
func (c *Chunker) Chunk(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	tokenCounts := make([]int, len(sentences))
	for i, s := range sentences {
		tokenCounts[i] = c.countTokens(s)
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		end := i
		total := 0
		for end < len(sentences) {
			if total > 0 && total+tokenCounts[end] > c.chunkSize {
				break
			}
			total += tokenCounts[end]
			end++
		}

		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end >= len(sentences) {
			break
		}

		// Walk back from the chunk end to build the overlap window.
		next := end
		overlapTokens := 0
		for next > i+1 && overlapTokens+tokenCounts[next-1] <= c.overlap {
			next--
			overlapTokens += tokenCounts[next]
		}
		i = next
	}

	return chunks
}
