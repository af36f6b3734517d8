// Package openaicompat builds go-openai clients for OpenAI-compatible
// endpoints and maps their failures onto the domain error taxonomy.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ontorag/internal/domain"
)

// Config describes an OpenAI-compatible endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient returns a go-openai client for cfg. An empty APIKey is a
// configuration error reported as domain.ErrMissingCredential.
func NewClient(service string, cfg Config) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", service, domain.ErrMissingCredential)
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(oc), nil
}

// WrapError wraps a go-openai failure in a *domain.TransportError carrying
// the HTTP status when one was received. When ctx itself is done the error is
// returned as is.
func WrapError(ctx context.Context, service string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	return &domain.TransportError{Service: service, StatusCode: status, Err: err}
}
