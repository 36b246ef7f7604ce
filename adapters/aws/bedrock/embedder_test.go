package bedrock

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Abraxas-365/docingest/embedding"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	inputs []*bedrockruntime.InvokeModelInput
	err    error
}

func (f *fakeRuntime) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	var req titanRequest
	if err := json.Unmarshal(in.Body, &req); err != nil {
		return nil, err
	}
	body, _ := json.Marshal(titanResponse{
		Embedding:           []float32{3, float32(len(req.InputText))},
		InputTextTokenCount: 1,
	})
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

func TestBedrockEmbedder_EmbedDocuments(t *testing.T) {
	client := &fakeRuntime{}
	e := NewBedrockEmbedder(client, embedding.WithDimensions(256))

	vectors, err := e.EmbedDocuments(context.Background(), []string{"ab", "abcd"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 2}, {3, 4}}, vectors)

	require.Len(t, client.inputs, 2)
	assert.Equal(t, string(TitanEmbedTextV2), aws.ToString(client.inputs[0].ModelId))

	var req titanRequest
	require.NoError(t, json.Unmarshal(client.inputs[0].Body, &req))
	assert.Equal(t, titanRequest{InputText: "ab", Dimensions: 256, Normalize: true}, req)
}

func TestBedrockEmbedder_V1NormalizesLocally(t *testing.T) {
	client := &fakeRuntime{}
	e := NewBedrockEmbedder(client, embedding.WithModel(string(TitanEmbedTextV1)))

	vec, err := e.EmbedQuery(context.Background(), "abcd")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var req titanRequest
	require.NoError(t, json.Unmarshal(client.inputs[0].Body, &req))
	assert.Zero(t, req.Dimensions)
	assert.False(t, req.Normalize)
}

func TestBedrockEmbedder_Errors(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"ValidationException", embedding.ErrCodeInvalidInput},
		{"ThrottlingException", embedding.ErrCodeRateLimitExceeded},
		{"AccessDeniedException", embedding.ErrCodeUnauthorized},
		{"ResourceNotFoundException", embedding.ErrCodeModelNotAvailable},
		{"InternalServerException", embedding.ErrCodeAPIError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			client := &fakeRuntime{err: &smithy.GenericAPIError{Code: tt.code, Message: "nope"}}
			_, err := NewBedrockEmbedder(client).EmbedQuery(context.Background(), "text")
			require.Error(t, err)
			assert.True(t, embedding.HasCode(err, tt.want), "got %v", err)
		})
	}

	t.Run("empty input", func(t *testing.T) {
		e := NewBedrockEmbedder(&fakeRuntime{})
		_, err := e.EmbedDocuments(context.Background(), nil)
		assert.True(t, embedding.HasCode(err, embedding.ErrCodeEmptyInput))
		_, err = e.EmbedDocuments(context.Background(), []string{"ok", ""})
		assert.True(t, embedding.HasCode(err, embedding.ErrCodeInvalidInput))
	})
}
