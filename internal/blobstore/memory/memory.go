// Package memory keeps blobs in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"ontorag/internal/domain"
)

// Store is a map-backed domain.BlobStore. Contents are lost when the process exits.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewStore() *Store { return &Store{blobs: make(map[string][]byte)} }

func (s *Store) Write(_ context.Context, name string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = cp
	return nil
}

func (s *Store) Read(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, fmt.Errorf("blob %q: %w", name, domain.ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Delete removes a blob; deleting a missing name is a no-op.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, name)
}
