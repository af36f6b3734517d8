// Package service runs the ingest and question answering pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ontorag/internal/answer"
	"ontorag/internal/chunker"
	"ontorag/internal/document"
	"ontorag/internal/domain"
	"ontorag/internal/ontology"
	"ontorag/internal/retriever"
	"ontorag/internal/summarizer"
	"ontorag/internal/vectorstore"
)

// DefaultStoreName is the artifact name used when none is configured.
const DefaultStoreName = "book_index"

// NotRelevantAnswer is returned when no retrieved chunk is close enough to
// the question.
const NotRelevantAnswer = "I couldn't find anything in this document that answers that question."

// Outcome says which path produced an answer.
type Outcome string

const (
	OutcomeMetadata    Outcome = "metadata"
	OutcomePeople      Outcome = "people"
	OutcomeNotRelevant Outcome = "not_relevant"
	OutcomeAnswered    Outcome = "answered"
)

// Options holds the tunables of the pipeline.
type Options struct {
	StoreName string
	TopK      int
}

// Deps are the collaborators the service runs on. Extractor may be nil to
// skip ontology extraction.
type Deps struct {
	Blobs      domain.BlobStore
	Chunker    *chunker.WordChunker
	Embedder   domain.Embedder
	Index      *vectorstore.Store
	Retriever  *retriever.Retriever
	Extractor  *ontology.Extractor
	Composer   *answer.Composer
	Summarizer *summarizer.FrequencySummarizer
}

// IngestResult describes a completed ingest.
type IngestResult struct {
	RunID      string          `json:"run_id"`
	Store      string          `json:"store"`
	Metadata   domain.Metadata `json:"metadata"`
	ChunkCount int             `json:"chunk_count"`
	Ontology   domain.Ontology `json:"ontology"`
	Persons    []string        `json:"persons"`
	Summary    string          `json:"summary"`
	Malformed  int             `json:"malformed_extractions"`
}

// QueryResult is the answer to one question and the evidence behind it.
type QueryResult struct {
	Query         string          `json:"query"`
	Outcome       Outcome         `json:"outcome"`
	Answer        string          `json:"answer"`
	Chunks        []string        `json:"chunks,omitempty"`
	Similarities  []float64       `json:"similarities,omitempty"`
	MaxSimilarity float64         `json:"max_similarity"`
	Facts         []domain.Triple `json:"facts,omitempty"`
}

// RAGService owns the current session. Ingest and Ask are serialized;
// a re-ingest replaces the session wholesale.
type RAGService struct {
	mu      sync.Mutex
	deps    Deps
	opts    Options
	logger  *zap.Logger
	session *Session
	index   *vectorstore.Index
}

func NewRAGService(deps Deps, opts Options, logger *zap.Logger) *RAGService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.StoreName == "" {
		opts.StoreName = DefaultStoreName
	}
	if opts.TopK <= 0 {
		opts.TopK = retriever.DefaultTopK
	}
	return &RAGService{deps: deps, opts: opts, logger: logger}
}

// StoreName is the artifact name this service reads and writes.
func (s *RAGService) StoreName() string { return s.opts.StoreName }

// Ingest reads a UTF-8 text file and ingests it.
func (s *RAGService) Ingest(ctx context.Context, path string) (*IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return s.IngestText(ctx, filepath.Base(path), string(data))
}

// IngestText normalizes, chunks, indexes and extracts raw, then persists the
// index and session under the configured store name.
func (s *RAGService) IngestText(ctx context.Context, name, raw string) (*IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID), zap.String("store", s.opts.StoreName))
	start := time.Now()

	doc := document.New(name, raw)
	chunks, err := s.deps.Chunker.Chunk(doc)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document %q has no text", domain.ErrInvalidInput, name)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	log.Info("document chunked",
		zap.String("document", name),
		zap.String("title", doc.Metadata.Title),
		zap.String("author", doc.Metadata.Author),
		zap.Int("chunks", len(chunks)),
	)

	ix, err := vectorstore.BuildIndex(ctx, texts, s.deps.Embedder)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	onto := domain.EmptyOntology()
	malformed := 0
	if s.deps.Extractor != nil {
		extraction, err := s.deps.Extractor.ExtractAll(ctx, texts)
		if err != nil {
			return nil, err
		}
		onto = extraction.Ontology
		malformed = extraction.Malformed
	}

	var summary string
	if s.deps.Summarizer != nil {
		summary = s.deps.Summarizer.Summarize(doc.Text)
	}

	sess := &Session{
		RunID:          runID,
		Document:       name,
		Metadata:       doc.Metadata,
		ChunkCount:     len(chunks),
		Ontology:       onto,
		Persons:        ontology.Persons(onto),
		Summary:        summary,
		EmbeddingModel: ix.Model,
		IngestedAt:     time.Now().UTC(),
	}
	// Nothing is persisted until every step above has succeeded.
	if err := s.deps.Index.Save(ctx, s.opts.StoreName, ix); err != nil {
		return nil, err
	}
	if err := saveSession(ctx, s.deps.Blobs, s.opts.StoreName, sess); err != nil {
		return nil, err
	}
	s.session = sess
	s.index = ix

	log.Info("ingest complete",
		zap.Int("entities", onto.EntityCount()),
		zap.Int("relationships", len(onto.Relationships)),
		zap.Duration("took", time.Since(start)),
	)

	return &IngestResult{
		RunID:      runID,
		Store:      s.opts.StoreName,
		Metadata:   sess.Metadata,
		ChunkCount: sess.ChunkCount,
		Ontology:   sess.Ontology,
		Persons:    sess.Persons,
		Summary:    sess.Summary,
		Malformed:  malformed,
	}, nil
}

// Session returns the current session, loading it from the store if this
// process has not ingested anything yet.
func (s *RAGService) Session(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.session, nil
}

func (s *RAGService) ensureLoaded(ctx context.Context) error {
	if s.session != nil && s.index != nil {
		return nil
	}
	sess, err := loadSession(ctx, s.deps.Blobs, s.opts.StoreName)
	if err != nil {
		return err
	}
	ix, err := s.deps.Index.Load(ctx, s.opts.StoreName, s.deps.Embedder.Model())
	if err != nil {
		return err
	}
	s.session = sess
	s.index = ix
	s.logger.Info("session loaded",
		zap.String("store", s.opts.StoreName),
		zap.String("run_id", sess.RunID),
		zap.Int("chunks", sess.ChunkCount),
	)
	return nil
}

var (
	authorQuestionRe = regexp.MustCompile(`(?i)\b(author|who wrote|written by)\b`)
	titleQuestionRe  = regexp.MustCompile(`(?i)\b(what('s| is) the title|title of (the|this)|name of (the|this) (book|novel|story))\b`)
	peopleQuestionRe = regexp.MustCompile(`(?i)^\s*(who|list|name)\b.*\b(characters|people|persons)\b`)
)

// Ask answers query against the current session.
func (s *RAGService) Ask(ctx context.Context, query string) (*QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	if res, ok := s.fromMetadata(query); ok {
		return res, nil
	}
	if peopleQuestionRe.MatchString(query) && len(s.session.Persons) > 0 {
		return &QueryResult{
			Query:   query,
			Outcome: OutcomePeople,
			Answer:  strings.Join(s.session.Persons, ", "),
		}, nil
	}

	retrieval, err := s.deps.Retriever.Search(ctx, s.index, query, s.opts.TopK)
	if err != nil {
		return nil, err
	}
	res := &QueryResult{
		Query:         query,
		Chunks:        retrieval.Chunks,
		Similarities:  retrieval.Similarities,
		MaxSimilarity: retrieval.MaxSimilarity,
	}
	if !retrieval.Relevant {
		s.logger.Info("question rejected by relevance gate",
			zap.String("query", query),
			zap.Float64("max_similarity", retrieval.MaxSimilarity),
		)
		res.Outcome = OutcomeNotRelevant
		res.Answer = NotRelevantAnswer
		return res, nil
	}

	res.Facts = ontology.Match(query, s.session.Ontology.Relationships)
	text, err := s.deps.Composer.Compose(ctx, query, retrieval.Chunks, res.Facts)
	if err != nil {
		return nil, err
	}
	res.Outcome = OutcomeAnswered
	res.Answer = text
	return res, nil
}

func (s *RAGService) fromMetadata(query string) (*QueryResult, bool) {
	meta := s.session.Metadata
	var value string
	switch {
	case authorQuestionRe.MatchString(query):
		value = meta.Author
	case titleQuestionRe.MatchString(query):
		value = meta.Title
	default:
		return nil, false
	}
	if value == "" || value == domain.UnknownMetadata {
		return nil, false
	}
	return &QueryResult{Query: query, Outcome: OutcomeMetadata, Answer: value}, true
}

// IsNotIngested reports whether err means nothing has been ingested under
// the store name yet.
func IsNotIngested(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
