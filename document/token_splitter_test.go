package document

import (
	"strings"
	"testing"

	"github.com/pkoukk/tiktoken-go"
)

// requireEncoding skips when the BPE ranks cannot be fetched, as in sandboxed CI.
func requireEncoding(t *testing.T) {
	t.Helper()
	if _, err := tiktoken.GetEncoding("cl100k_base"); err != nil {
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}
}

func TestNewTiktokenSplitter(t *testing.T) {
	tests := []struct {
		name           string
		tokensPerChunk int
		chunkOverlap   int
		model          string
		wantErr        bool
		errMessage     string
	}{
		{
			name:           "Valid parameters",
			tokensPerChunk: 100,
			chunkOverlap:   20,
			model:          "sentence-transformers/all-MiniLM-L6-v2",
			wantErr:        false,
		},
		{
			name:           "Zero tokens per chunk",
			tokensPerChunk: 0,
			chunkOverlap:   20,
			model:          "text-embedding-3-small",
			wantErr:        true,
			errMessage:     "chunkSize must be positive",
		},
		{
			name:           "Negative chunk overlap",
			tokensPerChunk: 100,
			chunkOverlap:   -1,
			model:          "text-embedding-3-small",
			wantErr:        true,
			errMessage:     "chunkOverlap must be non-negative",
		},
		{
			name:           "Overlap larger than chunk size",
			tokensPerChunk: 100,
			chunkOverlap:   150,
			model:          "text-embedding-3-small",
			wantErr:        true,
			errMessage:     "chunkOverlap must be less than chunkSize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.wantErr {
				requireEncoding(t)
			}
			splitter, err := NewTiktokenSplitter(tt.tokensPerChunk, tt.chunkOverlap, tt.model)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewTiktokenSplitter() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if !strings.Contains(err.Error(), tt.errMessage) {
					t.Errorf("NewTiktokenSplitter() error = %v, want error containing %v", err, tt.errMessage)
				}
				return
			}
			if err != nil {
				t.Errorf("NewTiktokenSplitter() unexpected error = %v", err)
				return
			}
			if splitter == nil {
				t.Error("NewTiktokenSplitter() returned nil splitter")
			}
		})
	}
}

func TestTiktokenSplitter_SplitDocuments(t *testing.T) {
	requireEncoding(t)

	docs := []Document{
		{PageContent: "This is document 1.", Metadata: Metadata{"source": "test1"}},
		{PageContent: strings.Repeat("This is document 2 with longer content. ", 50), Metadata: Metadata{"source": "test2"}},
		{PageContent: "", Metadata: Metadata{"source": "test3"}},
	}

	splitter, err := NewTiktokenSplitter(50, 10, "text-embedding-3-small")
	if err != nil {
		t.Fatalf("Failed to create splitter: %v", err)
	}

	splitDocs, err := splitter.SplitDocuments(docs)
	if err != nil {
		t.Fatalf("SplitDocuments() unexpected error = %v", err)
	}

	counts := map[string]int{}
	for _, doc := range splitDocs {
		if doc.PageContent == "" {
			t.Error("Split document has empty content")
		}
		counts[doc.Metadata.Source()]++
	}
	if counts["test1"] != 1 {
		t.Errorf("Expected a single chunk for short document, got %d", counts["test1"])
	}
	if counts["test2"] <= 1 {
		t.Errorf("Expected multiple chunks for long document, got %d", counts["test2"])
	}
	if counts["test3"] != 0 {
		t.Errorf("Expected no chunks for empty document, got %d", counts["test3"])
	}
}

func TestTokenLength_WithRecursiveSplitter(t *testing.T) {
	requireEncoding(t)

	length, err := TokenLength("text-embedding-3-small")
	if err != nil {
		t.Fatalf("TokenLength() error = %v", err)
	}

	splitter, err := NewRecursiveCharacterSplitter(
		WithChunkSize(32),
		WithChunkOverlap(4),
		WithLengthFunc(length),
	)
	if err != nil {
		t.Fatalf("NewRecursiveCharacterSplitter() error = %v", err)
	}

	chunks, err := splitter.SplitText(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20))
	if err != nil {
		t.Fatalf("SplitText() error = %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := length(chunk); n > 32 {
			t.Errorf("chunk %d has %d tokens, want <= 32", i, n)
		}
	}
}

func TestGetEncodingForModel(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		expected string
	}{
		{name: "GPT-4o", model: "gpt-4o-mini", expected: "o200k_base"},
		{name: "GPT-4", model: "gpt-4", expected: "cl100k_base"},
		{name: "Text Embedding 3 Small", model: "text-embedding-3-small", expected: "cl100k_base"},
		{name: "Davinci", model: "text-davinci-002", expected: "p50k_base"},
		{name: "Ada", model: "ada", expected: "r50k_base"},
		{name: "Sentence transformer", model: "sentence-transformers/all-MiniLM-L6-v2", expected: "cl100k_base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := getEncodingForModel(tt.model); result != tt.expected {
				t.Errorf("getEncodingForModel() = %v, want %v", result, tt.expected)
			}
		})
	}
}
