package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontorag/internal/domain"
)

// fakeBucket serves path-style PUT and GET requests from a map.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))

	bucket := &fakeBucket{objects: make(map[string][]byte)}
	srv := httptest.NewServer(bucket)
	defer srv.Close()

	ctx := context.Background()
	store, err := NewStore(ctx, Config{
		Bucket:          "ontorag",
		Endpoint:        srv.URL,
		Prefix:          "indexes",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, "book_index.index", []byte(`{"model":"m"}`)))
	assert.Contains(t, bucket.objects, "/ontorag/indexes/book_index.index")

	got, err := store.Read(ctx, "book_index.index")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"model":"m"}`), got)

	_, err = store.Read(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewStore_RequiresBucket(t *testing.T) {
	_, err := NewStore(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", fmt.Errorf("get: %w", &types.NoSuchKey{}), true},
		{"head not found", &types.NotFound{}, true},
		{"generic api code", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}
