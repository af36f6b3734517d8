package openai

import (
	"context"
	"fmt"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"ontorag/internal/openaicompat"
)

// DefaultModel is used when no embedding model is configured.
const DefaultModel = "text-embedding-3-small"

const serviceName = "embeddings"

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
type Client struct {
	api       *goopenai.Client
	model     string
	batchSize int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	BatchSize int
	Timeout   time.Duration
}

// NewClient creates a new embeddings client. A missing API key fails with domain.ErrMissingCredential.
func NewClient(cfg Config) (*Client, error) {
	api, err := openaicompat.NewClient(serviceName, openaicompat.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	return &Client{api: api, model: cfg.Model, batchSize: cfg.BatchSize}, nil
}

// Model returns the configured embedding model name.
func (c *Client) Model() string { return c.model }

// Embed returns one vector per text, requesting at most batchSize inputs per call.
// Failures are not retried.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		resp, err := c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
			Input: batch,
			Model: goopenai.EmbeddingModel(c.model),
		})
		if err != nil {
			return nil, openaicompat.WrapError(ctx, serviceName, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embeddings: expected %d vectors, got %d", len(batch), len(resp.Data))
		}
		vecs := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) || len(d.Embedding) == 0 {
				return nil, fmt.Errorf("embeddings: malformed vector at index %d", d.Index)
			}
			vecs[d.Index] = d.Embedding
		}
		out = append(out, vecs...)
	}
	return out, nil
}
