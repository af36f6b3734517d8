// Package vectorstore holds the flat vector index and its persistence.
package vectorstore

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"ontorag/internal/domain"
)

// FlatIndex is a brute-force index over squared Euclidean distance.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

func NewFlatIndex(dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dimension)
	}
	return &FlatIndex{dimension: dimension}, nil
}

// Add appends vectors; their positions continue from Len().
func (f *FlatIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, index has %d",
				domain.ErrInvalidInput, i, len(v), f.dimension)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range vectors {
		f.vectors = append(f.vectors, slices.Clone(v))
	}
	return nil
}

// Search returns up to k nearest positions, ascending by distance.
// Equal distances keep insertion order.
func (f *FlatIndex) Search(query []float32, k int) ([]float32, []int, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(query) != f.dimension {
		return nil, nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrInvalidInput, len(query), f.dimension)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	dists := make([]float32, len(f.vectors))
	for i, v := range f.vectors {
		dists[i] = squaredL2(v, query)
	}
	idxs := argsortAsc(dists)
	if k > len(idxs) {
		k = len(idxs)
	}

	outDists := make([]float32, k)
	outIdxs := make([]int, k)
	for i := 0; i < k; i++ {
		outIdxs[i] = idxs[i]
		outDists[i] = dists[idxs[i]]
	}
	return outDists, outIdxs, nil
}

// Vector returns a copy of the stored vector at position i.
func (f *FlatIndex) Vector(i int) ([]float32, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if i < 0 || i >= len(f.vectors) {
		return nil, false
	}
	return slices.Clone(f.vectors[i]), true
}

func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

func (f *FlatIndex) Dimension() int { return f.dimension }

func (f *FlatIndex) snapshot() [][]float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([][]float32, len(f.vectors))
	for i, v := range f.vectors {
		out[i] = slices.Clone(v)
	}
	return out
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func argsortAsc(vals []float32) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	slices.SortStableFunc(idxs, func(a, b int) int {
		return cmp.Compare(vals[a], vals[b])
	})
	return idxs
}
