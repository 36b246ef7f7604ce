// Package huggingface builds local sentence-embedding model handles backed by
// Hugging Face weights.
package huggingface

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/docingest/embedding"
	"github.com/Abraxas-365/docingest/logger"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/embeddings/cybertron"
)

var knownDimensions = map[string]int{
	DefaultModel: DefaultDimensions,
	"sentence-transformers/all-MiniLM-L12-v2":       384,
	"sentence-transformers/all-mpnet-base-v2":       768,
	"sentence-transformers/paraphrase-MiniLM-L6-v2": 384,
}

// newClient builds the encoder for a model cache entry. Tests replace it.
var newClient = func(cache ModelCache) (embeddings.EmbedderClient, error) {
	return cybertron.NewCybertron(
		cybertron.WithModel(cache.Model),
		cybertron.WithModelsDir(cache.Dir),
	)
}

// ModelCache locates a model's weights on disk.
type ModelCache struct {
	Dir   string
	Model string
}

// Path is the directory holding the converted weights.
func (c ModelCache) Path() string {
	return filepath.Join(c.Dir, filepath.FromSlash(c.Model))
}

// Exists reports whether the weights directory is present and non-empty.
func (c ModelCache) Exists() bool {
	entries, err := os.ReadDir(c.Path())
	return err == nil && len(entries) > 0
}

// Embedder is a ready-to-use sentence-embedding model handle. It is safe for
// concurrent use.
type Embedder struct {
	impl       embeddings.Embedder
	cache      ModelCache
	dimensions int
}

var _ embedding.Embedder = (*Embedder)(nil)

// New resolves the model cache, fetches weights when allowed and missing,
// and loads the encoder. Failures are *embedding.EmbeddingError with code
// ModelNotAvailable and are not retried.
func New(ctx context.Context, opts ...Option) (*Embedder, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	model := strings.TrimSpace(options.Model)
	if model == "" {
		return nil, embedding.ErrInvalidInput("new", nil, "model name is required")
	}
	if options.BatchSize <= 0 {
		return nil, embedding.ErrInvalidInput("new", nil, fmt.Sprintf("batch size %d", options.BatchSize))
	}
	if options.ModelsDir == "" {
		options.ModelsDir = DefaultModelsDir()
	}

	cache := ModelCache{Dir: options.ModelsDir, Model: model}
	log := logger.FromContext(ctx).With("model", model, "models_dir", cache.Dir)

	cached := cache.Exists()
	switch {
	case cached:
		log.Debug("Reusing cached model weights", "path", cache.Path())
	case options.DownloadPolicy == DownloadNever:
		return nil, embedding.NewEmbeddingError("new", nil, embedding.ErrCodeModelNotAvailable,
			fmt.Sprintf("model %s is not cached in %s and downloads are disabled", model, cache.Dir))
	default:
		if err := os.MkdirAll(cache.Dir, 0o755); err != nil {
			return nil, embedding.NewEmbeddingError("new", err, embedding.ErrCodeModelNotAvailable,
				"cannot create models dir "+cache.Dir)
		}
		log.Info("Downloading model weights")
	}

	if err := ctx.Err(); err != nil {
		return nil, embedding.ErrContextCanceled("new", err)
	}

	client, err := newClient(cache)
	if err != nil {
		return nil, embedding.NewEmbeddingError("new", err, embedding.ErrCodeModelNotAvailable,
			fmt.Sprintf("failed to load model %s", model))
	}
	impl, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(options.BatchSize),
		embeddings.WithStripNewLines(options.StripNewLines),
	)
	if err != nil {
		return nil, embedding.NewEmbeddingError("new", err, embedding.ErrCodeInternal,
			"failed to construct embedder")
	}

	log.Debug("Model ready", "downloaded", !cached)
	return &Embedder{
		impl:       impl,
		cache:      cache,
		dimensions: knownDimensions[model],
	}, nil
}

// Model returns the model identifier the handle was built for.
func (e *Embedder) Model() string {
	return e.cache.Model
}

// Dimensions returns the vector size of the model, or 0 when the model is
// not one of the well-known sentence-transformers checkpoints.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) ModelCache() ModelCache {
	return e.cache
}

// EmbedDocuments returns one vector per text, in input order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, embedding.ErrEmptyInput("EmbedDocuments")
	}
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, wrapError(ctx, "EmbedDocuments", err)
	}
	if len(vectors) != len(texts) {
		return nil, embedding.NewEmbeddingError("EmbedDocuments", nil, embedding.ErrCodeInternal,
			fmt.Sprintf("expected %d vectors, got %d", len(texts), len(vectors)))
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrEmptyInput("EmbedQuery")
	}
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, wrapError(ctx, "EmbedQuery", err)
	}
	return vector, nil
}

func wrapError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return embedding.ErrContextCanceled(op, err)
	}
	return embedding.NewEmbeddingError(op, err, embedding.ErrCodeInternal, "encoding failed")
}
