package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ontorag/internal/domain"
)

const sessionSuffix = ".session"

// Session is everything derived from one ingest besides the vector index.
// It is persisted next to the index so a later process can answer
// questions without re-ingesting.
type Session struct {
	RunID          string          `json:"run_id"`
	Document       string          `json:"document"`
	Metadata       domain.Metadata `json:"metadata"`
	ChunkCount     int             `json:"chunk_count"`
	Ontology       domain.Ontology `json:"ontology"`
	Persons        []string        `json:"persons"`
	Summary        string          `json:"summary"`
	EmbeddingModel string          `json:"embedding_model"`
	IngestedAt     time.Time       `json:"ingested_at"`
}

func saveSession(ctx context.Context, blobs domain.BlobStore, store string, sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := blobs.Write(ctx, store+sessionSuffix, data); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func loadSession(ctx context.Context, blobs domain.BlobStore, store string) (*Session, error) {
	data, err := blobs.Read(ctx, store+sessionSuffix)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", store, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", store, err)
	}
	if sess.Ontology.Entities == nil {
		sess.Ontology.Entities = map[string][]string{}
	}
	return &sess, nil
}
