package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterSplitter_SplitText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		size      int
		overlap   int
		separator string
		want      []string
	}{
		{
			name:    "empty text",
			text:    "",
			size:    10,
			overlap: 0,
			want:    nil,
		},
		{
			name:    "default separator is a space",
			text:    "one two three four",
			size:    10,
			overlap: 0,
			want:    []string{"one two", "three four"},
		},
		{
			name:    "overlap carries trailing words",
			text:    "one two three four",
			size:    10,
			overlap: 5,
			want:    []string{"one two", "two three", "three four"},
		},
		{
			name:      "oversized piece is kept whole",
			text:      "short|averyveryverylongpiece|end",
			size:      10,
			overlap:   0,
			separator: "|",
			want:      []string{"short", "averyveryverylongpiece", "end"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splitter, err := NewCharacterSplitter(tt.size, tt.overlap, tt.separator)
			require.NoError(t, err)

			got, err := splitter.SplitText(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewCharacterSplitter_InvalidConfig(t *testing.T) {
	_, err := NewCharacterSplitter(10, 10, " ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "splitter.new_character_splitter")
}

func TestCreateDocuments_MetadataMismatch(t *testing.T) {
	splitter, err := NewCharacterSplitter(10, 0, " ")
	require.NoError(t, err)

	_, err = CreateDocuments(splitter, []string{"a", "b"}, []Metadata{{"source": "x"}})
	assert.ErrorIs(t, err, ErrMetadataTextMismatch)
}

func TestCreateDocuments_NoMetadata(t *testing.T) {
	splitter, err := NewCharacterSplitter(10, 0, " ")
	require.NoError(t, err)

	docs, err := CreateDocuments(splitter, []string{"alpha beta"}, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotNil(t, docs[0].Metadata)
	assert.Equal(t, "", docs[0].Metadata.Source())
}
