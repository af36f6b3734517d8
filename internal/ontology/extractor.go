package ontology

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ontorag/internal/domain"
	"ontorag/internal/prompt"
)

const (
	DefaultChunkPrefix = 2000
	DefaultConcurrency = 4
	DefaultMaxChunks   = 8
)

// Config controls how chunks are sent to the model.
type Config struct {
	ChunkPrefix       int     // runes of each chunk sent; <= 0 uses DefaultChunkPrefix
	Concurrency       int     // parallel calls; <= 0 uses DefaultConcurrency
	MaxChunks         int     // 0 sends every chunk
	RequestsPerSecond float64 // 0 disables pacing
	Burst             int
	Dedup             DedupMode
}

// Extraction is the merged result of ExtractAll.
type Extraction struct {
	Ontology  domain.Ontology
	Results   []Result
	Malformed int
}

type Extractor struct {
	gen     domain.Generator
	prompts *prompt.Store
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewExtractor(gen domain.Generator, prompts *prompt.Store, cfg Config, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkPrefix <= 0 {
		cfg.ChunkPrefix = DefaultChunkPrefix
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Dedup == "" {
		cfg.Dedup = DedupCaseFold
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Extractor{
		gen:     gen,
		prompts: prompts,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger,
	}
}

// Extract asks the model for the ontology of one chunk. Only transport and
// prompt errors are returned; unparseable output is a Malformed result.
func (e *Extractor) Extract(ctx context.Context, chunk string) (Result, error) {
	text, err := e.prompts.Render(prompt.Ontology, truncateRunes(chunk, e.cfg.ChunkPrefix))
	if err != nil {
		return Result{}, err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	raw, err := e.gen.Complete(ctx, []domain.Message{{Role: domain.RoleUser, Content: text}})
	if err != nil {
		return Result{}, fmt.Errorf("extract ontology: %w", err)
	}

	res := Parse(raw)
	if res.Kind == Malformed {
		e.logger.Warn("could not parse ontology JSON", zap.String("raw", raw))
	}
	return res, nil
}

// ExtractAll extracts every chunk (up to MaxChunks) concurrently and folds the
// results in chunk order, so relationship order matches a sequential run.
func (e *Extractor) ExtractAll(ctx context.Context, chunks []string) (*Extraction, error) {
	if e.cfg.MaxChunks > 0 && len(chunks) > e.cfg.MaxChunks {
		chunks = chunks[:e.cfg.MaxChunks]
	}

	results := make([]Result, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := e.Extract(gctx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Extraction{Ontology: domain.EmptyOntology(), Results: results}
	for i, res := range results {
		if res.Kind == Malformed {
			out.Malformed++
		}
		out.Ontology = Merge(out.Ontology, res.Ontology, e.cfg.Dedup)
		e.logger.Debug("merged chunk ontology",
			zap.Int("chunk", i),
			zap.Stringer("kind", res.Kind),
			zap.Int("relationships", len(res.Ontology.Relationships)),
		)
	}

	e.logger.Info("ontology extracted",
		zap.Int("chunks", len(chunks)),
		zap.Int("malformed", out.Malformed),
		zap.Int("classes", len(out.Ontology.Classes)),
		zap.Int("entities", out.Ontology.EntityCount()),
		zap.Int("relationships", len(out.Ontology.Relationships)),
	)
	return out, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
