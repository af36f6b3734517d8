package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontorag/internal/blobstore/memory"
	"ontorag/internal/domain"
	"ontorag/internal/embedding/hashing"
)

var testChunks = []string{
	"Elizabeth Bennet walked to Netherfield through the muddy fields.",
	"Mr. Darcy wrote a long letter explaining his conduct toward Wickham.",
	"The Gardiners took Elizabeth on a tour of Derbyshire and Pemberley.",
}

func TestStore_BuildThenLoad(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewStore()
	emb := hashing.NewEmbedder(64)
	store := NewStore(blobs, nil)

	built, err := store.Build(ctx, "pride", testChunks, emb)
	require.NoError(t, err)
	assert.Equal(t, "hashing-64", built.Model)
	assert.Equal(t, 3, built.Flat.Len())

	loaded, err := store.Load(ctx, "pride", emb.Model())
	require.NoError(t, err)
	assert.Equal(t, testChunks, loaded.Chunks)
	assert.Equal(t, built.Flat.Len(), loaded.Flat.Len())
	assert.Equal(t, 64, loaded.Flat.Dimension())

	for i := range testChunks {
		want, _ := built.Flat.Vector(i)
		got, _ := loaded.Flat.Vector(i)
		assert.Equal(t, want, got)
	}
}

func TestBuildIndex_DoesNotPersist(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewStore()
	store := NewStore(blobs, nil)

	ix, err := BuildIndex(ctx, testChunks, hashing.NewEmbedder(32))
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Flat.Len())

	_, err = store.Load(ctx, "pride", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Save(ctx, "pride", ix))
	loaded, err := store.Load(ctx, "pride", "hashing-32")
	require.NoError(t, err)
	assert.Equal(t, testChunks, loaded.Chunks)
}

func TestStore_ChunkTextFindsItself(t *testing.T) {
	ctx := context.Background()
	emb := hashing.NewEmbedder(hashing.DefaultDimension)
	store := NewStore(memory.NewStore(), nil)

	_, err := store.Build(ctx, "pride", testChunks, emb)
	require.NoError(t, err)
	ix, err := store.Load(ctx, "pride", emb.Model())
	require.NoError(t, err)

	q, err := emb.Embed(ctx, []string{testChunks[0]})
	require.NoError(t, err)
	dists, idxs, err := ix.Search(q[0], 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, idxs)
	assert.InDelta(t, 0, dists[0], 1e-9)
}

func TestStore_BuildOverwrites(t *testing.T) {
	ctx := context.Background()
	emb := hashing.NewEmbedder(32)
	store := NewStore(memory.NewStore(), nil)

	_, err := store.Build(ctx, "book", testChunks, emb)
	require.NoError(t, err)
	_, err = store.Build(ctx, "book", testChunks[:1], emb)
	require.NoError(t, err)

	ix, err := store.Load(ctx, "book", "")
	require.NoError(t, err)
	assert.Equal(t, testChunks[:1], ix.Chunks)
	assert.Equal(t, 1, ix.Flat.Len())
}

func TestStore_LoadMissing(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewStore()
	store := NewStore(blobs, nil)

	_, err := store.Load(ctx, "absent", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.Build(ctx, "half", testChunks, hashing.NewEmbedder(16))
	require.NoError(t, err)
	blobs.Delete("half.chunks")

	_, err = store.Load(ctx, "half", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_LoadModelMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memory.NewStore(), nil)

	_, err := store.Build(ctx, "book", testChunks, hashing.NewEmbedder(16))
	require.NoError(t, err)

	_, err = store.Load(ctx, "book", "text-embedding-3-small")
	assert.ErrorIs(t, err, domain.ErrEmbeddingModelMismatch)
}

func TestStore_BuildRejectsEmpty(t *testing.T) {
	store := NewStore(memory.NewStore(), nil)
	_, err := store.Build(context.Background(), "empty", nil, hashing.NewEmbedder(16))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
