package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontorag/internal/domain"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Read(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	data := []byte("abc")
	require.NoError(t, s.Write(ctx, "x", data))
	data[0] = 'z'

	got, err := s.Read(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got, "store must keep its own copy")

	s.Delete("x")
	_, err = s.Read(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
