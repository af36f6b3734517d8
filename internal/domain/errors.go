package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a persisted artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingCredential indicates a service credential was not configured.
	ErrMissingCredential = errors.New("missing credential")

	// ErrEmbeddingModelMismatch indicates an index was built with a different
	// embedding model than the one used to query it.
	ErrEmbeddingModelMismatch = errors.New("embedding model mismatch")

	// ErrInvalidInput indicates a caller passed an unusable argument.
	ErrInvalidInput = errors.New("invalid input")
)

// TransportError is returned when a remote service is unreachable or answers
// with a non-success status. Err is the client error as received.
type TransportError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
