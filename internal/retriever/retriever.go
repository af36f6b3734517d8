// Package retriever finds the chunks nearest to a query and decides whether
// they are relevant enough to answer from.
package retriever

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"ontorag/internal/domain"
	"ontorag/internal/vectorstore"
)

const (
	DefaultTopK      = 8
	DefaultThreshold = 0.3
)

// Retrieval is the outcome of one query against one store. Slices are
// parallel and ordered nearest first.
type Retrieval struct {
	Chunks        []string
	Indices       []int
	Distances     []float32
	Similarities  []float64
	MaxSimilarity float64
	Relevant      bool
}

type Retriever struct {
	store     *vectorstore.Store
	embedder  domain.Embedder
	threshold float64
	logger    *zap.Logger
}

func New(store *vectorstore.Store, embedder domain.Embedder, threshold float64, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: store, embedder: embedder, threshold: threshold, logger: logger}
}

// Retrieve loads the named store, checking that it was built with this
// retriever's embedding model, and searches it.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, name string) (*Retrieval, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	ix, err := r.store.Load(ctx, name, r.embedder.Model())
	if err != nil {
		return nil, err
	}
	return r.Search(ctx, ix, query, k)
}

// Search runs the query against an already loaded index.
func (r *Retriever) Search(ctx context.Context, ix *vectorstore.Index, query string, k int) (*Retrieval, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if ix.Model != r.embedder.Model() {
		return nil, fmt.Errorf("%w: index built with %q, querying with %q",
			domain.ErrEmbeddingModelMismatch, ix.Model, r.embedder.Model())
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs))
	}
	qv := vecs[0]

	dists, idxs, err := ix.Search(qv, k)
	if err != nil {
		return nil, err
	}

	res := &Retrieval{
		Chunks:       make([]string, len(idxs)),
		Indices:      idxs,
		Distances:    dists,
		Similarities: make([]float64, len(idxs)),
	}
	for i, pos := range idxs {
		res.Chunks[i] = ix.Chunks[pos]
		stored, _ := ix.Flat.Vector(pos)
		res.Similarities[i] = Cosine(qv, stored)
	}
	res.MaxSimilarity, res.Relevant = Gate(res.Similarities, r.threshold)

	r.logger.Debug("retrieved chunks",
		zap.Int("k", k),
		zap.Ints("indices", idxs),
		zap.Float64("max_similarity", res.MaxSimilarity),
		zap.Bool("relevant", res.Relevant),
	)
	return res, nil
}

// Gate returns the maximum similarity and whether it reaches threshold.
// No similarities means not relevant.
func Gate(sims []float64, threshold float64) (float64, bool) {
	if len(sims) == 0 {
		return 0, false
	}
	best := math.Inf(-1)
	for _, s := range sims {
		if s > best {
			best = s
		}
	}
	return best, best >= threshold
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
