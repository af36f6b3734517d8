package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontorag/internal/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "blobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestStore_WriteReadOverwrite(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.Write(ctx, "book_index.chunks", []byte(`["a","b"]`)))
	got, err := store.Read(ctx, "book_index.chunks")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["a","b"]`), got)

	require.NoError(t, store.Write(ctx, "book_index.chunks", []byte(`["c"]`)))
	got, err = store.Read(ctx, "book_index.chunks")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["c"]`), got)
}

func TestStore_ReadMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Read(context.Background(), "never-written")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "blobs.db")

	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Write(ctx, "k", []byte("v")))
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, path, second.Path())

	got, err := second.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestNewStore_RequiresPath(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
