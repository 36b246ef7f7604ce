package document

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 20
)

// DefaultSeparators is the boundary priority used by the recursive splitter:
// paragraph break, line break, word break, then single characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// LengthFunc measures a piece of text in the unit chunk sizes are expressed in.
type LengthFunc func(string) int

// RuneLength counts Unicode code points.
func RuneLength(s string) int {
	return utf8.RuneCountInString(s)
}

// SplitterOptions configures a RecursiveCharacterSplitter
type SplitterOptions struct {
	ChunkSize       int
	ChunkOverlap    int
	Separators      []string
	Length          LengthFunc
	KeepSeparator   bool
	StripWhitespace bool
}

// SplitterOption is a function type to modify SplitterOptions
type SplitterOption func(*SplitterOptions)

// WithChunkSize sets the maximum chunk length
func WithChunkSize(size int) SplitterOption {
	return func(o *SplitterOptions) {
		o.ChunkSize = size
	}
}

// WithChunkOverlap sets how much of the previous chunk is repeated at the
// start of the next one
func WithChunkOverlap(overlap int) SplitterOption {
	return func(o *SplitterOptions) {
		o.ChunkOverlap = overlap
	}
}

// WithSeparators replaces the separator priority list
func WithSeparators(separators []string) SplitterOption {
	return func(o *SplitterOptions) {
		o.Separators = separators
	}
}

// WithLengthFunc sets the function used to measure chunks
func WithLengthFunc(fn LengthFunc) SplitterOption {
	return func(o *SplitterOptions) {
		o.Length = fn
	}
}

// WithKeepSeparator sets whether separators stay attached to the piece that
// follows them
func WithKeepSeparator(keep bool) SplitterOption {
	return func(o *SplitterOptions) {
		o.KeepSeparator = keep
	}
}

// WithStripWhitespace sets whether emitted chunks are trimmed
func WithStripWhitespace(strip bool) SplitterOption {
	return func(o *SplitterOptions) {
		o.StripWhitespace = strip
	}
}

func defaultSplitterOptions() *SplitterOptions {
	return &SplitterOptions{
		ChunkSize:       DefaultChunkSize,
		ChunkOverlap:    DefaultChunkOverlap,
		Separators:      DefaultSeparators,
		Length:          RuneLength,
		KeepSeparator:   true,
		StripWhitespace: true,
	}
}

// RecursiveCharacterSplitter splits text on the highest-priority separator
// present, recursing into pieces that are still too long with the remaining
// separators, then merges small pieces back up to ChunkSize.
type RecursiveCharacterSplitter struct {
	separators    []string
	keepSeparator bool
	merger
}

// NewRecursiveCharacterSplitter validates the options and builds a splitter.
func NewRecursiveCharacterSplitter(opts ...SplitterOption) (*RecursiveCharacterSplitter, error) {
	options := defaultSplitterOptions()
	for _, opt := range opts {
		opt(options)
	}

	if err := validateChunking("new_recursive_splitter", options.ChunkSize, options.ChunkOverlap); err != nil {
		return nil, err
	}
	if len(options.Separators) == 0 {
		return nil, &SplitterError{
			Op:      "new_recursive_splitter",
			Message: "at least one separator is required",
		}
	}
	if options.Length == nil {
		options.Length = RuneLength
	}

	separators := make([]string, len(options.Separators))
	copy(separators, options.Separators)

	return &RecursiveCharacterSplitter{
		separators:    separators,
		keepSeparator: options.KeepSeparator,
		merger: merger{
			chunkSize:    options.ChunkSize,
			chunkOverlap: options.ChunkOverlap,
			length:       options.Length,
			strip:        options.StripWhitespace,
		},
	}, nil
}

// ChunkSize returns the configured maximum chunk length.
func (rs *RecursiveCharacterSplitter) ChunkSize() int {
	return rs.chunkSize
}

// ChunkOverlap returns the configured overlap.
func (rs *RecursiveCharacterSplitter) ChunkOverlap() int {
	return rs.chunkOverlap
}

// SplitText implements Splitter.
func (rs *RecursiveCharacterSplitter) SplitText(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	return rs.split(text, rs.separators), nil
}

// SplitDocuments splits every document, copying metadata onto each chunk.
func (rs *RecursiveCharacterSplitter) SplitDocuments(docs []Document) ([]Document, error) {
	return SplitDocuments(rs, docs)
}

func (rs *RecursiveCharacterSplitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	mergeSeparator := separator
	if rs.keepSeparator {
		mergeSeparator = ""
	}

	var chunks, pending []string
	for _, piece := range splitOnSeparator(text, separator, rs.keepSeparator) {
		if rs.length(piece) < rs.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, rs.merge(pending, mergeSeparator)...)
			pending = nil
		}
		if len(next) == 0 {
			chunks = append(chunks, piece)
			continue
		}
		chunks = append(chunks, rs.split(piece, next)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, rs.merge(pending, mergeSeparator)...)
	}
	return chunks
}

// splitOnSeparator splits text on sep. With keep set, the separator stays at
// the start of the piece that follows it. An empty separator yields single
// code points. Empty pieces are dropped.
func splitOnSeparator(text, sep string, keep bool) []string {
	var parts []string
	if sep == "" {
		parts = make([]string, 0, len(text))
		for i := 0; i < len(text); {
			_, size := utf8.DecodeRuneInString(text[i:])
			parts = append(parts, text[i:i+size])
			i += size
		}
		return parts
	}

	raw := strings.Split(text, sep)
	parts = make([]string, 0, len(raw))
	for i, p := range raw {
		if keep && i > 0 {
			p = sep + p
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// merger joins small pieces into chunks of at most chunkSize, carrying up to
// chunkOverlap of trailing pieces into the next chunk.
type merger struct {
	chunkSize    int
	chunkOverlap int
	length       LengthFunc
	strip        bool
}

func (m merger) merge(pieces []string, separator string) []string {
	sepLen := m.length(separator)
	joinCost := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	var chunks, current []string
	total := 0
	for _, piece := range pieces {
		n := m.length(piece)
		if total+n+joinCost(len(current)) > m.chunkSize && len(current) > 0 {
			if chunk, ok := m.join(current, separator); ok {
				chunks = append(chunks, chunk)
			}
			for total > m.chunkOverlap || (total > 0 && total+n+joinCost(len(current)) > m.chunkSize) {
				total -= m.length(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		current = append(current, piece)
		if len(current) > 1 {
			total += sepLen
		}
		total += n
	}
	if chunk, ok := m.join(current, separator); ok {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (m merger) join(pieces []string, separator string) (string, bool) {
	text := strings.Join(pieces, separator)
	if m.strip {
		text = strings.TrimSpace(text)
	}
	return text, text != ""
}
