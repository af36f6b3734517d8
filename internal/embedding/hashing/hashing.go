package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"ontorag/internal/textutil"
)

// DefaultDimension matches the width of the small sentence-transformer models.
const DefaultDimension = 384

// Embedder implements a term-frequency vectorizer using the hashing trick.
// Tokens are lower-cased letter words with stopwords removed; each token is
// hashed into one of dimension buckets with a hash-derived sign, and the
// vector is L2 normalized. No vocabulary is kept, so vectors are reproducible
// in any process.
type Embedder struct {
	dimension int
}

// NewEmbedder creates a hashing embedder. Non-positive dimensions fall back to DefaultDimension.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

// Model identifies the embedding space, including its width.
func (e *Embedder) Model() string { return fmt.Sprintf("hashing-%d", e.dimension) }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes one vector per text. Texts without content words map to the zero vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *Embedder) embedOne(text string) []float32 {
	acc := make([]float64, e.dimension)
	for _, tok := range textutil.ContentWords(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimension))
		if sum>>63 == 1 {
			acc[bucket]--
		} else {
			acc[bucket]++
		}
	}
	norm := 0.0
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	vec := make([]float32, e.dimension)
	if norm == 0 {
		return vec
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}
