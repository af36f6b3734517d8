package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ontorag/internal/answer"
	"ontorag/internal/blobstore/filesystem"
	"ontorag/internal/blobstore/memory"
	"ontorag/internal/blobstore/s3"
	"ontorag/internal/blobstore/sqlite"
	"ontorag/internal/chunker"
	"ontorag/internal/config"
	"ontorag/internal/domain"
	"ontorag/internal/embedding/hashing"
	"ontorag/internal/embedding/openai"
	"ontorag/internal/llm"
	"ontorag/internal/logger"
	"ontorag/internal/ontology"
	"ontorag/internal/prompt"
	"ontorag/internal/retriever"
	"ontorag/internal/service"
	"ontorag/internal/summarizer"
	"ontorag/internal/vectorstore"
)

// app holds everything a command needs; Close releases it.
type app struct {
	cfg     *config.AppConfig
	logger  *zap.Logger
	svc     *service.RAGService
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

// buildApp assembles the pipeline from cfg.
func buildApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: log}

	blobs, closer, err := newBlobStore(ctx, cfg.BlobStore)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("embedder: %w", err)
	}

	gen, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKey:      cfg.Generator.APIKey,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("generator (set %s): %w", cfg.Generator.APIKeyEnv, err)
	}

	wc, err := chunker.NewWordChunker(cfg.Chunker.MaxTokens)
	if err != nil {
		a.Close()
		return nil, err
	}

	index := vectorstore.NewStore(blobs, log.Named("vectorstore"))
	deps := service.Deps{
		Blobs:      blobs,
		Chunker:    wc,
		Embedder:   emb,
		Index:      index,
		Retriever:  retriever.New(index, emb, cfg.Retrieval.RelevanceThreshold, log.Named("retriever")),
		Composer:   answer.NewComposer(gen, cfg.Answer.ContextChars, log.Named("answer")),
		Summarizer: summarizer.NewFrequencySummarizer(cfg.Summarizer.MaxSentences),
	}
	if cfg.Ontology.Enabled {
		mode, err := ontology.ParseDedupMode(cfg.Ontology.Dedup)
		if err != nil {
			a.Close()
			return nil, err
		}
		deps.Extractor = ontology.NewExtractor(gen, prompt.NewStore(cfg.Ontology.PromptDir), ontology.Config{
			ChunkPrefix:       cfg.Ontology.ChunkPrefix,
			Concurrency:       cfg.Ontology.Concurrency,
			MaxChunks:         cfg.Ontology.MaxChunks,
			RequestsPerSecond: cfg.Ontology.RequestsPerSecond,
			Burst:             cfg.Ontology.Burst,
			Dedup:             mode,
		}, log.Named("ontology"))
	}

	a.svc = service.NewRAGService(deps, service.Options{
		StoreName: cfg.Retrieval.StoreName,
		TopK:      cfg.Retrieval.TopK,
	}, log.Named("service"))

	log.Debug("pipeline assembled",
		zap.String("embedder", emb.Model()),
		zap.String("generator", gen.Model()),
		zap.String("blob_store", cfg.BlobStore.Type),
		zap.Bool("ontology", cfg.Ontology.Enabled),
	)
	return a, nil
}

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Hashing.Dimension), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKey:    cfg.OpenAI.APIKey,
			Model:     cfg.OpenAI.Model,
			BatchSize: cfg.OpenAI.BatchSize,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newBlobStore(ctx context.Context, cfg config.BlobStoreConfig) (domain.BlobStore, func() error, error) {
	switch cfg.Type {
	case "filesystem", "":
		dir := cfg.Dir
		if dir == "" {
			dir = filesystem.DefaultDir
		}
		st, err := filesystem.NewStore(dir)
		return st, nil, err
	case "memory":
		return memory.NewStore(), nil, nil
	case "sqlite":
		st, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case "s3":
		if cfg.S3 == nil {
			return nil, nil, fmt.Errorf("s3 blob store config missing")
		}
		st, err := s3.NewStore(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		return st, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown blob store: %s", cfg.Type)
	}
}
