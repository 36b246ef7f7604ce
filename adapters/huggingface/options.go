package huggingface

import (
	"os"
	"path/filepath"
)

const (
	// DefaultModel is the sentence-transformers MiniLM checkpoint.
	DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"
	// DefaultDimensions is the output size of DefaultModel.
	DefaultDimensions = 384
	DefaultBatchSize  = 32
)

// DownloadPolicy controls whether missing weights may be fetched.
type DownloadPolicy int

const (
	// DownloadMissing fetches weights on first use and reuses the local
	// copy afterwards.
	DownloadMissing DownloadPolicy = iota
	// DownloadNever only uses weights already present in the models dir.
	DownloadNever
)

func (p DownloadPolicy) String() string {
	switch p {
	case DownloadNever:
		return "never"
	default:
		return "missing"
	}
}

// ParseDownloadPolicy maps "never"/"offline" to DownloadNever and anything
// else to DownloadMissing.
func ParseDownloadPolicy(s string) DownloadPolicy {
	switch s {
	case "never", "offline":
		return DownloadNever
	default:
		return DownloadMissing
	}
}

// Options configures the embedding-model factory
type Options struct {
	Model          string
	ModelsDir      string
	DownloadPolicy DownloadPolicy
	BatchSize      int
	StripNewLines  bool
}

// Option is a function type to modify Options
type Option func(*Options)

func DefaultOptions() *Options {
	return &Options{
		Model:          DefaultModel,
		ModelsDir:      DefaultModelsDir(),
		DownloadPolicy: DownloadMissing,
		BatchSize:      DefaultBatchSize,
		StripNewLines:  true,
	}
}

// DefaultModelsDir is docingest/models under the user cache directory, or
// ./models when no cache directory is available.
func DefaultModelsDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "docingest", "models")
	}
	return "models"
}

// WithModel sets the model identifier
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithModelsDir sets where weights are cached
func WithModelsDir(dir string) Option {
	return func(o *Options) {
		o.ModelsDir = dir
	}
}

// WithDownloadPolicy sets whether missing weights may be fetched
func WithDownloadPolicy(policy DownloadPolicy) Option {
	return func(o *Options) {
		o.DownloadPolicy = policy
	}
}

// WithBatchSize sets how many texts are encoded per call
func WithBatchSize(size int) Option {
	return func(o *Options) {
		o.BatchSize = size
	}
}

// WithStripNewLines sets whether newlines are replaced by spaces before
// encoding
func WithStripNewLines(strip bool) Option {
	return func(o *Options) {
		o.StripNewLines = strip
	}
}
