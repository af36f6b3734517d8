package domain

import "context"

// Embedder converts free text into fixed-dimension vectors.
// Model identifies the embedding space; vectors from different models must never be compared.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a completion for a chat exchange.
type Generator interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// BlobStore is a named key-value store for persisted artifacts.
// Read returns ErrNotFound when nothing was written under name.
type BlobStore interface {
	Write(ctx context.Context, name string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
}
