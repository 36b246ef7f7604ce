package document

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

type TiktokenSplitter struct {
	TokensPerChunk int
	ChunkOverlap   int
	Model          string
	encoding       *tiktoken.Tiktoken
}

// getEncodingForModel returns the appropriate encoding name for a given model
func getEncodingForModel(model string) string {
	if strings.HasPrefix(model, "gpt-4o") {
		return "o200k_base"
	}

	if strings.HasPrefix(model, "gpt-4") ||
		strings.HasPrefix(model, "gpt-3.5-turbo") ||
		model == "text-embedding-ada-002" ||
		model == "text-embedding-3-small" ||
		model == "text-embedding-3-large" {
		return "cl100k_base"
	}

	if strings.HasPrefix(model, "code-") ||
		model == "text-davinci-002" ||
		model == "text-davinci-003" {
		return "p50k_base"
	}

	if model == "davinci" ||
		model == "curie" ||
		model == "babbage" ||
		model == "ada" ||
		strings.HasPrefix(model, "text-similarity-") ||
		strings.HasPrefix(model, "text-search-") {
		return "r50k_base"
	}

	// Sentence-transformer models and anything unknown.
	return "cl100k_base"
}

func encodingFor(op, model string) (*tiktoken.Tiktoken, error) {
	encodingName := getEncodingForModel(model)
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, &SplitterError{
			Op:      op,
			Message: fmt.Sprintf("failed to get %s encoding for model %s", encodingName, model),
			Err:     err,
		}
	}
	return encoding, nil
}

// TokenLength returns a LengthFunc counting tokens with the encoding used by
// model, so the recursive splitter can size chunks in tokens.
func TokenLength(model string) (LengthFunc, error) {
	encoding, err := encodingFor("token_length", model)
	if err != nil {
		return nil, err
	}
	return func(s string) int {
		return len(encoding.Encode(s, nil, nil))
	}, nil
}

func NewTiktokenSplitter(tokensPerChunk int, chunkOverlap int, model string) (*TiktokenSplitter, error) {
	if err := validateChunking("new_tiktoken_splitter", tokensPerChunk, chunkOverlap); err != nil {
		return nil, err
	}

	encoding, err := encodingFor("new_tiktoken_splitter", model)
	if err != nil {
		return nil, err
	}

	return &TiktokenSplitter{
		TokensPerChunk: tokensPerChunk,
		ChunkOverlap:   chunkOverlap,
		Model:          model,
		encoding:       encoding,
	}, nil
}

// SplitText cuts the token stream into windows of TokensPerChunk, each
// starting ChunkOverlap tokens before the previous one ended.
func (ts *TiktokenSplitter) SplitText(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	tokens := ts.encoding.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil, nil
	}

	var chunks []string
	step := ts.TokensPerChunk - ts.ChunkOverlap
	for start := 0; start < len(tokens); start += step {
		end := start + ts.TokensPerChunk
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, ts.encoding.Decode(tokens[start:end]))

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}

func (ts *TiktokenSplitter) SplitDocuments(docs []Document) ([]Document, error) {
	return SplitDocuments(ts, docs)
}
