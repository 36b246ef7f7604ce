package pipeline

import (
	"github.com/Abraxas-365/docingest/datasource"
	"github.com/Abraxas-365/docingest/vectorstore"
)

// Options contains configuration for the pipeline
type Options struct {
	ScoreThreshold float32
	Filters        vectorstore.Filter
	Distance       vectorstore.DistanceMetric
	TopK           int
	LoadOptions    []datasource.Option
}

// Option is a function type to modify Options
type Option func(*Options)

// Default options
func defaultOptions() *Options {
	return &Options{
		ScoreThreshold: 0.0,
		Distance:       vectorstore.Cosine,
		TopK:           4,
	}
}

// WithScoreThreshold sets the minimum similarity score threshold
func WithScoreThreshold(threshold float32) Option {
	return func(o *Options) {
		o.ScoreThreshold = threshold
	}
}

// WithFilters sets default filters for queries
func WithFilters(filters vectorstore.Filter) Option {
	return func(o *Options) {
		o.Filters = filters
	}
}

// WithDistanceMetric sets the distance calculation method
func WithDistanceMetric(metric vectorstore.DistanceMetric) Option {
	return func(o *Options) {
		o.Distance = metric
	}
}

// WithTopK sets the number of similar documents to retrieve when a search
// does not give a limit
func WithTopK(k int) Option {
	return func(o *Options) {
		o.TopK = k
	}
}

// WithLoadOptions sets the options passed to every data source load
func WithLoadOptions(opts ...datasource.Option) Option {
	return func(o *Options) {
		o.LoadOptions = opts
	}
}
