package chunker

import (
	"fmt"
	"strings"

	"ontorag/internal/domain"
)

// DefaultMaxTokens is the approximate token budget of a single chunk.
const DefaultMaxTokens = 350

// WordChunker splits text into consecutive, non-overlapping word windows sized
// by an approximate token budget.
//
// The budget is converted with a fixed 0.75 words-per-token ratio, which holds
// only roughly for English prose. A chunk may therefore exceed maxTokens real
// model tokens; prompt size is bounded separately by the answer composer.
type WordChunker struct {
	maxTokens int
}

// NewWordChunker returns a chunker for the given token budget, which must be positive.
func NewWordChunker(maxTokens int) (*WordChunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive, got %d", domain.ErrInvalidInput, maxTokens)
	}
	return &WordChunker{maxTokens: maxTokens}, nil
}

// WordsPerChunk is floor(maxTokens * 0.75), never less than one word.
func WordsPerChunk(maxTokens int) int {
	n := maxTokens * 3 / 4
	if n < 1 {
		return 1
	}
	return n
}

// Split returns the word windows of text joined by single spaces.
// Empty or all-whitespace text yields no chunks.
func (c *WordChunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	size := WordsPerChunk(c.maxTokens)
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

// Chunk splits the normalized text of document into indexed chunks.
func (c *WordChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	texts := c.Split(document.Text)
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{Index: i, Text: t}
	}
	return chunks, nil
}
