package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/Abraxas-365/docingest/document"
	"github.com/Abraxas-365/docingest/embedding"
)

// Filter matches records whose metadata values equal the given values
type Filter map[string]any

// Keys returns the filter keys in sorted order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a new filter with other's entries overriding f's.
func (f Filter) Merge(other Filter) Filter {
	merged := make(Filter, len(f)+len(other))
	for k, v := range f {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Validate rejects empty keys and values that do not compare as a single
// scalar.
func (f Filter) Validate(store string) error {
	for _, key := range f.Keys() {
		if key == "" {
			return NewInvalidFilterError(store, "empty key")
		}
		switch f[key].(type) {
		case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		default:
			return NewInvalidFilterError(store, fmt.Sprintf("unsupported value %T for key %q", f[key], key))
		}
	}
	return nil
}

// Document extends document.Document with a score
type Document struct {
	PageContent string            `json:"page_content"`
	Metadata    document.Metadata `json:"metadata"`
	Score       float32           `json:"score"`
}

// ToDocument converts a vectorstore.Document to document.Document
func (d Document) ToDocument() document.Document {
	return document.Document{
		PageContent: d.PageContent,
		Metadata:    d.Metadata,
	}
}

// FromDocument creates a vectorstore.Document from document.Document
func FromDocument(doc document.Document) Document {
	return Document{
		PageContent: doc.PageContent,
		Metadata:    doc.Metadata,
	}
}

// Store interface defines the operations that any vector database adapter must implement
type Store interface {
	// AddDocuments adds documents to the vector store
	AddDocuments(ctx context.Context, docs []Document, vectors [][]float32) error

	// SimilaritySearch performs a similarity search using the provided vector
	SimilaritySearch(ctx context.Context, vector []float32, limit int, filter Filter) ([]Document, error)

	// Delete removes documents from the store
	Delete(ctx context.Context, filter Filter) error
}

// Replacer is implemented by stores that can swap the documents matching a
// filter for new ones atomically.
type Replacer interface {
	ReplaceDocuments(ctx context.Context, filter Filter, docs []Document, vectors [][]float32) error
}

// VectorStore is the main struct that combines the database adapter and embedder
type VectorStore struct {
	store    Store
	embedder embedding.Embedder
	opts     *Options
}

// New creates a new VectorStore instance
func New(store Store, embedder embedding.Embedder, opts ...Option) *VectorStore {
	options := &Options{
		ScoreThreshold: 0.0,
		Distance:       Cosine,
	}

	for _, opt := range opts {
		opt(options)
	}

	return &VectorStore{
		store:    store,
		embedder: embedder,
		opts:     options,
	}
}

// AddDocuments embeds every document's content and stores it
func (vs *VectorStore) AddDocuments(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	vsDocs, vectors, err := vs.embed(ctx, docs)
	if err != nil {
		return err
	}
	return vs.store.AddDocuments(ctx, vsDocs, vectors)
}

// ReplaceDocuments swaps the stored documents matching filter for docs.
// Embedding happens first, so an embedding failure leaves the store
// untouched. Stores implementing Replacer apply the swap atomically; others
// get a Delete followed by AddDocuments.
func (vs *VectorStore) ReplaceDocuments(ctx context.Context, filter Filter, docs []document.Document) error {
	var (
		vsDocs  []Document
		vectors [][]float32
	)
	if len(docs) > 0 {
		var err error
		if vsDocs, vectors, err = vs.embed(ctx, docs); err != nil {
			return err
		}
	}

	if r, ok := vs.store.(Replacer); ok {
		return r.ReplaceDocuments(ctx, filter, vsDocs, vectors)
	}
	if err := vs.store.Delete(ctx, filter); err != nil {
		return err
	}
	if len(vsDocs) == 0 {
		return nil
	}
	return vs.store.AddDocuments(ctx, vsDocs, vectors)
}

func (vs *VectorStore) embed(ctx context.Context, docs []document.Document) ([]Document, [][]float32, error) {
	texts := make([]string, len(docs))
	vsDocs := make([]Document, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
		vsDocs[i] = FromDocument(doc)
	}

	vectors, err := vs.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, nil, NewEmbeddingFailedError("vectorstore", err)
	}
	if len(vectors) != len(docs) {
		return nil, nil, NewVectorCountMismatchError("vectorstore", len(docs), len(vectors))
	}
	return vsDocs, vectors, nil
}

// SimilaritySearch performs a similarity search using the query text
func (vs *VectorStore) SimilaritySearch(ctx context.Context, query string, limit int, filter Filter) ([]Document, error) {
	vector, err := vs.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, NewEmbeddingFailedError("vectorstore", err)
	}

	vsDocs, err := vs.store.SimilaritySearch(ctx, vector, limit, vs.opts.Filters.Merge(filter))
	if err != nil {
		return nil, err
	}

	// Apply score threshold
	docs := make([]Document, 0, len(vsDocs))
	for _, vsDoc := range vsDocs {
		if vs.opts.ScoreThreshold <= 0 || vsDoc.Score >= vs.opts.ScoreThreshold {
			docs = append(docs, vsDoc)
		}
	}

	return docs, nil
}

// Delete removes documents from the store
func (vs *VectorStore) Delete(ctx context.Context, filter Filter) error {
	return vs.store.Delete(ctx, filter)
}
