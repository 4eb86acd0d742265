package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestCachedEmbeddingGenerator(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	real := &countingEmbedder{}
	gen, err := NewCachedEmbeddingGenerator(real, path, zap.NewNop())
	require.NoError(t, err)

	first, err := gen.GenerateEmbedding(ctx, "soupe")
	require.NoError(t, err)
	second, err := gen.GenerateEmbedding(ctx, "soupe")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, real.calls)

	require.NoError(t, gen.SaveCache())
	assert.Equal(t, 1, gen.Len())

	t.Run("ReloadedCacheSkipsRealGenerator", func(t *testing.T) {
		other := &countingEmbedder{}
		reloaded, err := NewCachedEmbeddingGenerator(other, path, zap.NewNop())
		require.NoError(t, err)

		got, err := reloaded.GenerateEmbedding(ctx, "soupe")
		require.NoError(t, err)
		assert.Equal(t, first, got)
		assert.Zero(t, other.calls)
	})

	t.Run("ErrorsAreNotCached", func(t *testing.T) {
		failing := &countingEmbedder{err: errors.New("boom")}
		g, err := NewCachedEmbeddingGenerator(failing, filepath.Join(t.TempDir(), "c.json"), zap.NewNop())
		require.NoError(t, err)

		_, err = g.GenerateEmbedding(ctx, "x")
		require.Error(t, err)
		_, err = g.GenerateEmbedding(ctx, "x")
		require.Error(t, err)
		assert.Equal(t, 2, failing.calls)
	})

	t.Run("CleanCacheIsNotRewritten", func(t *testing.T) {
		require.NoError(t, os.Remove(path))
		require.NoError(t, gen.SaveCache())
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("CorruptFileIsRejected", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
		_, err := NewCachedEmbeddingGenerator(&countingEmbedder{}, bad, zap.NewNop())
		assert.Error(t, err)
	})
}
