package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"ontorag/internal/domain"
)

const (
	indexSuffix  = ".index"
	chunksSuffix = ".chunks"
)

// Index is a loaded (or freshly built) store: the search structure, the
// embedding model that produced it, and the chunk texts by position.
type Index struct {
	Model  string
	Flat   *FlatIndex
	Chunks []string
}

// Search delegates to the flat index.
func (ix *Index) Search(query []float32, k int) ([]float32, []int, error) {
	return ix.Flat.Search(query, k)
}

type indexArtifact struct {
	Model     string      `json:"model"`
	Dimension int         `json:"dimension"`
	Vectors   [][]float32 `json:"vectors"`
}

// Store persists indexes as two blobs per name.
type Store struct {
	blobs  domain.BlobStore
	logger *zap.Logger
}

func NewStore(blobs domain.BlobStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{blobs: blobs, logger: logger}
}

// BuildIndex embeds chunks in one batch and indexes them in memory. Nothing
// is persisted.
func BuildIndex(ctx context.Context, chunks []string, emb domain.Embedder) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrInvalidInput)
	}

	vectors, err := emb.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	flat, err := NewFlatIndex(len(vectors[0]))
	if err != nil {
		return nil, err
	}
	if err := flat.Add(vectors); err != nil {
		return nil, err
	}
	return &Index{Model: emb.Model(), Flat: flat, Chunks: append([]string(nil), chunks...)}, nil
}

// Build indexes chunks and overwrites the artifacts stored under name.
func (s *Store) Build(ctx context.Context, name string, chunks []string, emb domain.Embedder) (*Index, error) {
	ix, err := BuildIndex(ctx, chunks, emb)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, name, ix); err != nil {
		return nil, err
	}
	return ix, nil
}

// Save overwrites the artifacts stored under name with ix.
func (s *Store) Save(ctx context.Context, name string, ix *Index) error {
	if err := s.save(ctx, name, ix); err != nil {
		return err
	}
	s.logger.Info("vector index saved",
		zap.String("store", name),
		zap.String("model", ix.Model),
		zap.Int("chunks", len(ix.Chunks)),
		zap.Int("dimension", ix.Flat.Dimension()),
	)
	return nil
}

func (s *Store) save(ctx context.Context, name string, ix *Index) error {
	indexBlob, err := json.Marshal(indexArtifact{
		Model:     ix.Model,
		Dimension: ix.Flat.Dimension(),
		Vectors:   ix.Flat.snapshot(),
	})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	chunksBlob, err := json.Marshal(ix.Chunks)
	if err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}

	if err := s.blobs.Write(ctx, name+indexSuffix, indexBlob); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := s.blobs.Write(ctx, name+chunksSuffix, chunksBlob); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}
	return nil
}

// Load reads the artifacts stored under name. A non-empty model must match
// the model the index was built with.
func (s *Store) Load(ctx context.Context, name, model string) (*Index, error) {
	indexBlob, err := s.blobs.Read(ctx, name+indexSuffix)
	if err != nil {
		return nil, fmt.Errorf("load index %q: %w", name, err)
	}
	chunksBlob, err := s.blobs.Read(ctx, name+chunksSuffix)
	if err != nil {
		return nil, fmt.Errorf("load chunks %q: %w", name, err)
	}

	var art indexArtifact
	if err := json.Unmarshal(indexBlob, &art); err != nil {
		return nil, fmt.Errorf("decode index %q: %w", name, err)
	}
	var chunks []string
	if err := json.Unmarshal(chunksBlob, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks %q: %w", name, err)
	}

	if model != "" && art.Model != model {
		return nil, fmt.Errorf("%w: store %q was built with %q, configured embedder is %q",
			domain.ErrEmbeddingModelMismatch, name, art.Model, model)
	}
	if len(art.Vectors) != len(chunks) {
		return nil, fmt.Errorf("store %q is inconsistent: %d vectors, %d chunks", name, len(art.Vectors), len(chunks))
	}

	flat, err := NewFlatIndex(art.Dimension)
	if err != nil {
		return nil, fmt.Errorf("store %q: %w", name, err)
	}
	if err := flat.Add(art.Vectors); err != nil {
		return nil, fmt.Errorf("store %q: %w", name, err)
	}

	s.logger.Debug("vector index loaded", zap.String("store", name), zap.Int("chunks", len(chunks)))
	return &Index{Model: art.Model, Flat: flat, Chunks: chunks}, nil
}
