package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/Abraxas-365/docingest/embedding"
	"github.com/sashabaranov/go-openai"
)

type OpenAIEmbedder struct {
	client  *openai.Client
	options *embedding.EmbeddingOptions
}

var _ embedding.Embedder = (*OpenAIEmbedder)(nil)

// Option configures the client side of the embedder.
type Option func(*openai.ClientConfig)

// WithBaseURL points the embedder at any server exposing the OpenAI
// embeddings API, such as a text-embeddings-inference deployment.
func WithBaseURL(url string) Option {
	return func(c *openai.ClientConfig) {
		c.BaseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *openai.ClientConfig) {
		c.HTTPClient = client
	}
}

// DefaultOptions returns the default options for OpenAI embeddings
func DefaultOptions() *embedding.EmbeddingOptions {
	return &embedding.EmbeddingOptions{
		Model:     string(openai.SmallEmbedding3),
		BatchSize: 100,
		Normalize: true,
		Truncate:  true,
	}
}

// NewOpenAIEmbedder creates a new OpenAI embedder with the given API key and options
func NewOpenAIEmbedder(apiKey string, opts ...embedding.Option) *OpenAIEmbedder {
	return NewOpenAIEmbedderWithConfig(apiKey, nil, opts...)
}

// NewOpenAIEmbedderWithConfig is NewOpenAIEmbedder with client options.
func NewOpenAIEmbedderWithConfig(apiKey string, clientOpts []Option, opts ...embedding.Option) *OpenAIEmbedder {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.BatchSize <= 0 {
		options.BatchSize = DefaultOptions().BatchSize
	}

	config := openai.DefaultConfig(apiKey)
	for _, opt := range clientOpts {
		opt(&config)
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(config),
		options: options,
	}
}

// EmbedDocuments implements the Embedder interface
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return nil, embedding.ErrEmptyInput("EmbedDocuments")
	}

	embeddings := make([][]float32, 0, len(documents))
	for i, batch := range embedding.Batches(documents, e.options.BatchSize) {
		vectors, err := e.create(ctx, "EmbedDocuments", batch)
		if err != nil {
			return nil, fmt.Errorf("error processing batch %d: %w", i, err)
		}
		embeddings = append(embeddings, vectors...)
	}
	return embeddings, nil
}

// EmbedQuery implements the Embedder interface
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrEmptyInput("EmbedQuery")
	}

	vectors, err := e.create(ctx, "EmbedQuery", []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) create(ctx context.Context, op string, input []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      input,
		Model:      openai.EmbeddingModel(e.options.Model),
		Dimensions: e.options.Dimensions,
	})
	if err != nil {
		return nil, e.handleError(op, err)
	}
	if len(resp.Data) != len(input) {
		return nil, embedding.NewEmbeddingError(op, nil, embedding.ErrCodeAPIError,
			fmt.Sprintf("expected %d embeddings, API returned %d", len(input), len(resp.Data)))
	}

	// the API does not guarantee response order
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
		if e.options.Normalize {
			embedding.Normalize(vectors[i])
		}
	}
	return vectors, nil
}

// handleError converts OpenAI API errors to embedding errors
func (e *OpenAIEmbedder) handleError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return embedding.ErrContextCanceled(op, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusBadRequest:
			return embedding.ErrInvalidInput(op, err, apiErr.Message)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized:
			return embedding.NewEmbeddingError(op, err, embedding.ErrCodeUnauthorized, "invalid API key")
		case apiErr.HTTPStatusCode == http.StatusNotFound:
			return embedding.ErrModelNotAvailable(op, err)
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return embedding.ErrRateLimitExceeded(op, err)
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return embedding.NewEmbeddingError(op, err, embedding.ErrCodeModelNotAvailable,
				"embedding API server error")
		default:
			return embedding.NewEmbeddingError(op, err, embedding.ErrCodeAPIError,
				fmt.Sprintf("embedding API error: %s", apiErr.Message))
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return embedding.NewEmbeddingError(op, err, embedding.ErrCodeAPIError,
			fmt.Sprintf("embedding request failed with status %d", reqErr.HTTPStatusCode))
	}

	return embedding.NewEmbeddingError(op, err, embedding.ErrCodeInternal, "unexpected error")
}
