package document

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSplitter(t *testing.T, opts ...SplitterOption) *RecursiveCharacterSplitter {
	t.Helper()
	splitter, err := NewRecursiveCharacterSplitter(opts...)
	require.NoError(t, err)
	return splitter
}

func TestNewRecursiveCharacterSplitter_Defaults(t *testing.T) {
	splitter := newSplitter(t)
	assert.Equal(t, 500, splitter.ChunkSize())
	assert.Equal(t, 20, splitter.ChunkOverlap())
	assert.Equal(t, []string{"\n\n", "\n", " ", ""}, splitter.separators)
}

func TestNewRecursiveCharacterSplitter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name       string
		opts       []SplitterOption
		errMessage string
	}{
		{
			name:       "zero chunk size",
			opts:       []SplitterOption{WithChunkSize(0), WithChunkOverlap(0)},
			errMessage: "chunkSize must be positive",
		},
		{
			name:       "negative overlap",
			opts:       []SplitterOption{WithChunkOverlap(-1)},
			errMessage: "chunkOverlap must be non-negative",
		},
		{
			name:       "overlap equal to chunk size",
			opts:       []SplitterOption{WithChunkSize(20), WithChunkOverlap(20)},
			errMessage: "chunkOverlap must be less than chunkSize",
		},
		{
			name:       "overlap larger than chunk size",
			opts:       []SplitterOption{WithChunkSize(10), WithChunkOverlap(50)},
			errMessage: "chunkOverlap must be less than chunkSize",
		},
		{
			name:       "no separators",
			opts:       []SplitterOption{WithSeparators(nil)},
			errMessage: "at least one separator is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splitter, err := NewRecursiveCharacterSplitter(tt.opts...)
			require.Error(t, err)
			assert.Nil(t, splitter)

			var splitErr *SplitterError
			require.True(t, errors.As(err, &splitErr))
			assert.Equal(t, "new_recursive_splitter", splitErr.Op)
			assert.Contains(t, err.Error(), tt.errMessage)
		})
	}
}

func TestRecursiveCharacterSplitter_SplitText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name:    "empty text",
			text:    "",
			size:    500,
			overlap: 20,
			want:    nil,
		},
		{
			name:    "whitespace only",
			text:    "  \n\n  ",
			size:    500,
			overlap: 20,
			want:    nil,
		},
		{
			name:    "short text is a single chunk",
			text:    "Hello\n\nWorld",
			size:    500,
			overlap: 20,
			want:    []string{"Hello\n\nWorld"},
		},
		{
			name:    "paragraphs stay together",
			text:    "aaaa bbbb\n\ncccc dddd\n\neeee",
			size:    20,
			overlap: 0,
			want:    []string{"aaaa bbbb\n\ncccc dddd", "eeee"},
		},
		{
			name:    "falls back to words",
			text:    "one two three four",
			size:    10,
			overlap: 0,
			want:    []string{"one two", "three", "four"},
		},
		{
			name:    "word overlap",
			text:    "one two three four",
			size:    10,
			overlap: 4,
			want:    []string{"one two", "two three", "four"},
		},
		{
			name:    "long word is cut by characters",
			text:    "abcdefghij klm",
			size:    5,
			overlap: 0,
			want:    []string{"abcde", "fghij", "klm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splitter := newSplitter(t, WithChunkSize(tt.size), WithChunkOverlap(tt.overlap))
			got, err := splitter.SplitText(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecursiveCharacterSplitter_HardCuts(t *testing.T) {
	text := strings.Repeat("A", 1200)
	splitter := newSplitter(t)

	chunks, err := splitter.SplitText(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// the last chunk is 240 long: 220 new characters after the 20 carried
	// over from the previous chunk
	lengths := []int{len(chunks[0]), len(chunks[1]), len(chunks[2])}
	assert.Equal(t, []int{500, 500, 240}, lengths)

	// dropping each overlap window rebuilds the input
	rebuilt := chunks[0] + chunks[1][20:] + chunks[2][20:]
	assert.Equal(t, text, rebuilt)
}

func TestRecursiveCharacterSplitter_CountsRunes(t *testing.T) {
	text := strings.Repeat("é", 600)
	splitter := newSplitter(t, WithChunkOverlap(0))

	chunks, err := splitter.SplitText(text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 500, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[1]))
}

func TestRecursiveCharacterSplitter_ChunkBounds(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("Lorem ipsum dolor sit amet, consectetur adipiscing elit. ")
		if i%5 == 4 {
			b.WriteString("\n\n")
		} else if i%3 == 0 {
			b.WriteString("\n")
		}
	}
	text := b.String()

	splitter := newSplitter(t, WithChunkSize(120), WithChunkOverlap(20))
	chunks, err := splitter.SplitText(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 120, "chunk %d too long", i)
		assert.NotEmpty(t, chunk)
		assert.Contains(t, text, chunk)
	}
}

func TestRecursiveCharacterSplitter_SplitDocuments(t *testing.T) {
	docs := []Document{
		{PageContent: "short page", Metadata: Metadata{"source": "a.pdf"}},
		{PageContent: "", Metadata: Metadata{"source": "blank.pdf"}},
		{PageContent: strings.Repeat("word ", 300), Metadata: Metadata{"source": "b.pdf"}},
	}

	splitter := newSplitter(t)
	chunks, err := splitter.SplitDocuments(docs)
	require.NoError(t, err)

	perSource := map[string]int{}
	for _, chunk := range chunks {
		perSource[chunk.Metadata.Source()]++
		assert.Len(t, chunk.Metadata, 1)
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.PageContent), 500)
	}
	assert.Equal(t, 1, perSource["a.pdf"])
	assert.Equal(t, 0, perSource["blank.pdf"])
	assert.Equal(t, 4, perSource["b.pdf"])

	// each chunk owns its metadata
	chunks[0].Metadata["source"] = "changed"
	assert.Equal(t, "a.pdf", docs[0].Metadata.Source())
}

func TestRecursiveCharacterSplitter_EmptyInput(t *testing.T) {
	splitter := newSplitter(t)
	chunks, err := splitter.SplitDocuments(nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRecursiveCharacterSplitter_CustomLength(t *testing.T) {
	words := func(s string) int { return len(strings.Fields(s)) }
	splitter := newSplitter(t,
		WithChunkSize(3),
		WithChunkOverlap(0),
		WithSeparators([]string{" "}),
		WithLengthFunc(words),
	)

	chunks, err := splitter.SplitText("a b c d e f g")
	require.NoError(t, err)
	assert.Equal(t, []string{"a b c", "d e f", "g"}, chunks)
}
