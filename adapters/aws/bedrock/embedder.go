package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Abraxas-365/docingest/embedding"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/ptr"
)

// EmbeddingModelID represents available Bedrock embedding models
type EmbeddingModelID string

const (
	TitanEmbedTextV2 EmbeddingModelID = "amazon.titan-embed-text-v2:0"
	TitanEmbedTextV1 EmbeddingModelID = "amazon.titan-embed-text-v1"
)

// InvokeModelAPI is the subset of *bedrockruntime.Client the embedder calls.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type BedrockEmbedder struct {
	client  InvokeModelAPI
	options *embedding.EmbeddingOptions
}

var _ embedding.Embedder = (*BedrockEmbedder)(nil)

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize,omitempty"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

func DefaultOptions() *embedding.EmbeddingOptions {
	return &embedding.EmbeddingOptions{
		Model:     string(TitanEmbedTextV2),
		BatchSize: 1,
		Normalize: true,
	}
}

func NewBedrockEmbedder(client InvokeModelAPI, opts ...embedding.Option) *BedrockEmbedder {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &BedrockEmbedder{
		client:  client,
		options: options,
	}
}

// EmbedDocuments embeds texts one request at a time; Titan accepts a single
// input per call.
func (b *BedrockEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return nil, embedding.ErrEmptyInput("EmbedDocuments")
	}
	vectors := make([][]float32, 0, len(documents))
	for i, text := range documents {
		vec, err := b.invoke(ctx, "EmbedDocuments", text)
		if err != nil {
			return nil, fmt.Errorf("error processing document %d: %w", i, err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

func (b *BedrockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrEmptyInput("EmbedQuery")
	}
	return b.invoke(ctx, "EmbedQuery", text)
}

func (b *BedrockEmbedder) invoke(ctx context.Context, op, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrInvalidInput(op, nil, "empty text")
	}
	req := titanRequest{InputText: text}
	if EmbeddingModelID(b.options.Model) == TitanEmbedTextV2 {
		req.Dimensions = b.options.Dimensions
		req.Normalize = b.options.Normalize
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, embedding.NewEmbeddingError(op, err, embedding.ErrCodeInternal, "failed to marshal request")
	}

	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     ptr.String(b.options.Model),
		Body:        body,
		ContentType: ptr.String("application/json"),
		Accept:      ptr.String("application/json"),
	})
	if err != nil {
		return nil, handleBedrockError(op, err)
	}

	var resp titanResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, embedding.NewEmbeddingError(op, err, embedding.ErrCodeAPIError, "failed to unmarshal response")
	}
	if len(resp.Embedding) == 0 {
		return nil, embedding.NewEmbeddingError(op, nil, embedding.ErrCodeAPIError, "no embedding returned from API")
	}
	// v1 has no server-side normalisation
	if b.options.Normalize && EmbeddingModelID(b.options.Model) != TitanEmbedTextV2 {
		embedding.Normalize(resp.Embedding)
	}
	return resp.Embedding, nil
}

func handleBedrockError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return embedding.ErrContextCanceled(op, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ValidationException":
			return embedding.ErrInvalidInput(op, err, apiErr.ErrorMessage())
		case "ThrottlingException", "ServiceQuotaExceededException":
			return embedding.ErrRateLimitExceeded(op, err)
		case "AccessDeniedException", "UnrecognizedClientException":
			return embedding.NewEmbeddingError(op, err, embedding.ErrCodeUnauthorized, apiErr.ErrorMessage())
		case "ResourceNotFoundException", "ModelNotReadyException", "ModelTimeoutException", "ServiceUnavailableException":
			return embedding.ErrModelNotAvailable(op, err)
		}
	}
	return embedding.NewEmbeddingError(op, err, embedding.ErrCodeAPIError, "Bedrock API error")
}
