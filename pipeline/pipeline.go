package pipeline

import (
	"context"
	"errors"

	"github.com/Abraxas-365/docingest/adapters/pdf"
	"github.com/Abraxas-365/docingest/datasource"
	"github.com/Abraxas-365/docingest/document"
	"github.com/Abraxas-365/docingest/embedding"
	"github.com/Abraxas-365/docingest/logger"
	"github.com/Abraxas-365/docingest/vectorstore"
)

// Stats summarises one ingestion run.
type Stats struct {
	Pages   int `json:"pages"`
	Sources int `json:"sources"`
	Chunks  int `json:"chunks"`
}

// Pipeline loads documents from a data source, normalises and chunks them,
// and stores the embedded chunks.
type Pipeline struct {
	embedder embedding.Embedder
	vStore   *vectorstore.VectorStore
	store    vectorstore.Store
	splitter document.Splitter
	opts     *Options
}

// New creates a new Pipeline instance with the provided options
func New(
	embedder embedding.Embedder,
	store vectorstore.Store,
	splitter document.Splitter,
	opts ...Option,
) (*Pipeline, error) {
	if embedder == nil || store == nil || splitter == nil {
		return nil, errors.New("pipeline: embedder, store and splitter are required")
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	p := &Pipeline{
		embedder: embedder,
		store:    store,
		splitter: splitter,
		opts:     options,
	}
	p.vStore = p.newVectorStore()
	return p, nil
}

func (p *Pipeline) newVectorStore() *vectorstore.VectorStore {
	return vectorstore.New(
		p.store,
		p.embedder,
		vectorstore.WithScoreThreshold(p.opts.ScoreThreshold),
		vectorstore.WithFilters(p.opts.Filters),
		vectorstore.WithDistance(p.opts.Distance),
	)
}

// GetOptions returns a copy of the current options
func (p *Pipeline) GetOptions() Options {
	return *p.opts
}

// UpdateOptions updates the pipeline options
func (p *Pipeline) UpdateOptions(opts ...Option) {
	for _, opt := range opts {
		opt(p.opts)
	}
	p.vStore = p.newVectorStore()
}

// Ingest loads every page from ds and replaces the stored chunks of each
// source it saw. Sources are processed in first-seen order; a failure stops
// the run, leaving already-processed sources replaced and the failing
// source with its previous chunks.
func (p *Pipeline) Ingest(ctx context.Context, ds datasource.DataSource) (Stats, error) {
	log := logger.FromContext(ctx)

	pages, err := ds.Load(ctx, p.opts.LoadOptions...)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Pages: len(pages)}

	records := document.FilterToMinimal(pages)
	order, bySource := groupBySource(records)
	for _, source := range order {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		chunks, err := p.processSource(ctx, source, bySource[source])
		if err != nil {
			return stats, err
		}
		stats.Sources++
		stats.Chunks += chunks
		log.Debug("Ingested source", "source", source, "chunks", chunks)
	}

	log.Info("Ingestion complete", "pages", stats.Pages, "sources", stats.Sources, "chunks", stats.Chunks)
	return stats, nil
}

// IngestDir ingests every PDF in dir.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (Stats, error) {
	return p.Ingest(ctx, pdf.NewDirectorySource(dir))
}

func (p *Pipeline) processSource(ctx context.Context, source string, docs []document.Document) (int, error) {
	chunks, err := document.SplitDocuments(p.splitter, docs)
	if err != nil {
		return 0, err
	}

	// Chunks are embedded before the stale ones are removed, so a failed run
	// leaves the previous chunks of the source in place
	if err := p.vStore.ReplaceDocuments(ctx, vectorstore.Filter{document.MetadataSource: source}, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func groupBySource(docs []document.Document) ([]string, map[string][]document.Document) {
	var order []string
	groups := make(map[string][]document.Document)
	for _, doc := range docs {
		source := doc.Metadata.Source()
		if _, ok := groups[source]; !ok {
			order = append(order, source)
		}
		groups[source] = append(groups[source], doc)
	}
	return order, groups
}

// SimilaritySearch returns the stored chunks closest to query. A
// non-positive limit uses the configured TopK.
func (p *Pipeline) SimilaritySearch(
	ctx context.Context,
	query string,
	limit int,
	filter vectorstore.Filter,
) ([]vectorstore.Document, error) {
	if limit <= 0 {
		limit = p.opts.TopK
	}
	return p.vStore.SimilaritySearch(ctx, query, limit, filter)
}
