package datasource

import "github.com/Abraxas-365/docingest/document"

// DefaultGlob matches PDF files directly inside the loaded location.
const DefaultGlob = "*.pdf"

// LoadOptions represents options for loading documents
type LoadOptions struct {
	// Recursive indicates whether to recursively load from directories/prefixes
	Recursive bool
	// Glob is the file name pattern, relative to the loaded location
	Glob string
	// Filter is a function that determines whether to keep a page record
	Filter func(metadata document.Metadata) bool
	// MaxItems is the maximum number of files to read (0 for no limit)
	MaxItems int
	// IncludeHidden loads dot-files and descends into dot-directories
	IncludeHidden bool
}

// Option is a function type to modify LoadOptions
type Option func(*LoadOptions)

// Apply returns defaults overridden by opts.
func Apply(opts ...Option) *LoadOptions {
	o := &LoadOptions{Glob: DefaultGlob}
	for _, opt := range opts {
		opt(o)
	}
	if o.Glob == "" {
		o.Glob = DefaultGlob
	}
	return o
}

// Keep reports whether a record passes the configured filter.
func (o *LoadOptions) Keep(metadata document.Metadata) bool {
	return o.Filter == nil || o.Filter(metadata)
}

// WithRecursive sets whether to load recursively
func WithRecursive(recursive bool) Option {
	return func(o *LoadOptions) {
		o.Recursive = recursive
	}
}

// WithGlob sets the file name pattern
func WithGlob(glob string) Option {
	return func(o *LoadOptions) {
		o.Glob = glob
	}
}

// WithFilter sets a filter function for documents
func WithFilter(filter func(metadata document.Metadata) bool) Option {
	return func(o *LoadOptions) {
		o.Filter = filter
	}
}

// WithMaxItems sets the maximum number of items to load
func WithMaxItems(max int) Option {
	return func(o *LoadOptions) {
		o.MaxItems = max
	}
}

// WithHidden sets whether hidden files and directories are loaded
func WithHidden(include bool) Option {
	return func(o *LoadOptions) {
		o.IncludeHidden = include
	}
}
