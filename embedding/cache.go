package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder memoises vectors of an inner Embedder by text. Document and
// query vectors are cached under distinct keys since some models embed them
// differently. Returned vectors are copies; callers may modify them freely.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[[sha256.Size]byte, []float32]
}

var _ Embedder = (*CachedEmbedder)(nil)

func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	if inner == nil {
		return nil, ErrInvalidInput("new_cached_embedder", nil, "inner embedder is nil")
	}
	cache, err := lru.New[[sha256.Size]byte, []float32](size)
	if err != nil {
		return nil, ErrInvalidInput("new_cached_embedder", err, fmt.Sprintf("cache size %d", size))
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// EmbedDocuments embeds only texts not already cached, in one call to the
// inner embedder, and returns vectors in input order.
func (c *CachedEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return nil, ErrEmptyInput("EmbedDocuments")
	}

	out := make([][]float32, len(documents))
	var missing []string
	var missingIdx []int
	for i, text := range documents {
		if vec, ok := c.cache.Get(cacheKey(documentKey, text)); ok {
			out[i] = clone(vec)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := c.inner.EmbedDocuments(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, NewEmbeddingError("EmbedDocuments", nil, ErrCodeInternal,
			fmt.Sprintf("expected %d vectors, got %d", len(missing), len(vectors)))
	}
	for j, vec := range vectors {
		c.cache.Add(cacheKey(documentKey, missing[j]), clone(vec))
		out[missingIdx[j]] = vec
	}
	return out, nil
}

func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(queryKey, text)
	if vec, ok := c.cache.Get(key); ok {
		return clone(vec), nil
	}
	vec, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, clone(vec))
	return vec, nil
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

const (
	documentKey byte = 'd'
	queryKey    byte = 'q'
)

func cacheKey(kind byte, text string) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte{kind})
	h.Write([]byte(text))
	var key [sha256.Size]byte
	h.Sum(key[:0])
	return key
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
