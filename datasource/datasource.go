package datasource

import (
	"context"

	"github.com/Abraxas-365/docingest/document"
)

// DataSource represents a source of page-level document records
type DataSource interface {
	// Load reads every matching item from the source. Each returned record
	// carries at least the "source" metadata key.
	Load(ctx context.Context, opts ...Option) ([]document.Document, error)
}
