// Package llm talks to an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ontorag/internal/domain"
	"ontorag/internal/openaicompat"
)

// Defaults mirror the hosted Mixtral deployment the pipeline was tuned against.
const (
	DefaultBaseURL     = "https://router.huggingface.co/together/v1"
	DefaultModel       = "mistralai/Mixtral-8x7B-Instruct-v0.1"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 800
)

const serviceName = "chat"

// ErrNoChoices is returned when the service answers without any completion.
var ErrNoChoices = errors.New("chat: no response choices returned")

// Config holds connection and sampling settings for the chat service.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements domain.Generator.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewClient validates cfg and builds a client. A missing API key fails with
// domain.ErrMissingCredential.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
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
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Client{
		api:         api,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Model returns the chat model name.
func (c *Client) Model() string { return c.model }

// Complete sends messages and returns the first choice's content verbatim.
func (c *Client) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", openaicompat.WrapError(ctx, serviceName, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
