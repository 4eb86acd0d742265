package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// CachedEmbeddingGenerator memoizes embeddings by text hash and persists
// them to a JSON file, so re-saving a recipe or repeating a book search
// costs no API call.
type CachedEmbeddingGenerator struct {
	next   EmbeddingGenerator
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string][]float32
	dirty   bool
}

// NewCachedEmbeddingGenerator loads the cache at path, if any. A missing file
// starts an empty cache; a corrupt one is an error.
func NewCachedEmbeddingGenerator(next EmbeddingGenerator, path string, logger *zap.Logger) (*CachedEmbeddingGenerator, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory for %s: %w", path, err)
	}
	c := &CachedEmbeddingGenerator{
		next:    next,
		path:    path,
		logger:  logger,
		entries: make(map[string][]float32),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		logger.Debug("embedding cache not found, starting empty", zap.String("path", path))
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read cache file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("corrupt embedding cache %s: %w", path, err)
	}

	logger.Info("loaded embedding cache", zap.Int("entries", len(c.entries)), zap.String("path", path))
	return c, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// GenerateEmbedding serves text from the cache or asks the wrapped
// generator. Failures are not cached. The lock is not held during the
// remote call; two concurrent misses on the same text both call out.
func (c *CachedEmbeddingGenerator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)

	c.mu.RLock()
	embedding, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return embedding, nil
	}

	embedding, err := c.next.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = embedding
	c.dirty = true
	c.mu.Unlock()
	return embedding, nil
}

// Len reports how many embeddings are cached.
func (c *CachedEmbeddingGenerator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SaveCache writes the cache when it changed since the last save. The file
// is replaced atomically.
func (c *CachedEmbeddingGenerator) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", c.path, err)
	}

	c.dirty = false
	c.logger.Debug("saved embedding cache", zap.Int("entries", len(c.entries)), zap.String("path", c.path))
	return nil
}
