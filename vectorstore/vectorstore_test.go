package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/docingest/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	err   error
	short bool
}

func (s *stubEmbedder) EmbedDocuments(_ context.Context, docs []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	n := len(docs)
	if s.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(docs[i]))}
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{float32(len(text))}, nil
}

type recordingStore struct {
	docs    []Document
	vectors [][]float32
	filter  Filter
	results []Document
	deletes int
}

func (r *recordingStore) AddDocuments(_ context.Context, docs []Document, vectors [][]float32) error {
	r.docs = append(r.docs, docs...)
	r.vectors = append(r.vectors, vectors...)
	return nil
}

func (r *recordingStore) SimilaritySearch(_ context.Context, _ []float32, _ int, filter Filter) ([]Document, error) {
	r.filter = filter
	return r.results, nil
}

func (r *recordingStore) Delete(_ context.Context, filter Filter) error {
	r.filter = filter
	r.deletes++
	return nil
}

type replacingStore struct {
	recordingStore
	replaced []Document
}

func (r *replacingStore) ReplaceDocuments(_ context.Context, filter Filter, docs []Document, _ [][]float32) error {
	r.filter = filter
	r.replaced = docs
	return nil
}

func TestVectorStore_AddDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds page content", func(t *testing.T) {
		store := &recordingStore{}
		vs := New(store, &stubEmbedder{})
		err := vs.AddDocuments(ctx, []document.Document{
			{PageContent: "abc", Metadata: document.Metadata{"source": "a.pdf"}},
			{PageContent: "de", Metadata: document.Metadata{"source": "a.pdf"}},
		})
		require.NoError(t, err)
		require.Len(t, store.docs, 2)
		assert.Equal(t, [][]float32{{3}, {2}}, store.vectors)
		assert.Equal(t, "a.pdf", store.docs[1].Metadata.Source())
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		store := &recordingStore{}
		require.NoError(t, New(store, &stubEmbedder{err: errors.New("unused")}).AddDocuments(ctx, nil))
		assert.Empty(t, store.docs)
	})

	t.Run("embedding failure", func(t *testing.T) {
		err := New(&recordingStore{}, &stubEmbedder{err: errors.New("down")}).
			AddDocuments(ctx, []document.Document{{PageContent: "x"}})
		assert.True(t, HasCode(err, ErrCodeEmbeddingFailed))
	})

	t.Run("vector count mismatch", func(t *testing.T) {
		err := New(&recordingStore{}, &stubEmbedder{short: true}).
			AddDocuments(ctx, []document.Document{{PageContent: "x"}, {PageContent: "y"}})
		assert.True(t, HasCode(err, ErrCodeInvalidDimensions))
	})
}

func TestVectorStore_SimilaritySearch(t *testing.T) {
	store := &recordingStore{results: []Document{
		{PageContent: "close", Score: 0.9},
		{PageContent: "far", Score: 0.2},
	}}
	vs := New(store, &stubEmbedder{},
		WithScoreThreshold(0.5),
		WithFilters(Filter{"source": "default.pdf", "lang": "en"}),
	)

	docs, err := vs.SimilaritySearch(context.Background(), "query", 5, Filter{"source": "a.pdf"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "close", docs[0].PageContent)
	assert.Equal(t, Filter{"source": "a.pdf", "lang": "en"}, store.filter)
}

func TestFilter(t *testing.T) {
	f := Filter{"b": 1, "a": 2}
	assert.Equal(t, []string{"a", "b"}, f.Keys())

	var empty Filter
	assert.Equal(t, Filter{"x": 1}, empty.Merge(Filter{"x": 1}))
	assert.Empty(t, empty.Merge(nil))
}

func TestVectorStore_ReplaceDocuments(t *testing.T) {
	ctx := context.Background()
	filter := Filter{"source": "a.pdf"}
	docs := []document.Document{{PageContent: "abc", Metadata: document.Metadata{"source": "a.pdf"}}}

	t.Run("deletes then adds on plain stores", func(t *testing.T) {
		store := &recordingStore{}
		require.NoError(t, New(store, &stubEmbedder{}).ReplaceDocuments(ctx, filter, docs))
		assert.Equal(t, 1, store.deletes)
		assert.Equal(t, filter, store.filter)
		assert.Equal(t, [][]float32{{3}}, store.vectors)
	})

	t.Run("embedding failure leaves the store untouched", func(t *testing.T) {
		store := &recordingStore{}
		err := New(store, &stubEmbedder{err: errors.New("down")}).ReplaceDocuments(ctx, filter, docs)
		assert.True(t, HasCode(err, ErrCodeEmbeddingFailed))
		assert.Zero(t, store.deletes)
		assert.Empty(t, store.docs)
	})

	t.Run("no documents only deletes", func(t *testing.T) {
		store := &recordingStore{}
		require.NoError(t, New(store, &stubEmbedder{err: errors.New("unused")}).ReplaceDocuments(ctx, filter, nil))
		assert.Equal(t, 1, store.deletes)
		assert.Empty(t, store.docs)
	})

	t.Run("uses Replacer when available", func(t *testing.T) {
		store := &replacingStore{}
		require.NoError(t, New(store, &stubEmbedder{}).ReplaceDocuments(ctx, filter, docs))
		assert.Zero(t, store.deletes)
		require.Len(t, store.replaced, 1)
		assert.Equal(t, "abc", store.replaced[0].PageContent)
	})
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{"source": "a.pdf", "page": 2, "draft": false, "score": 0.5}.Validate("test"))
	assert.NoError(t, Filter(nil).Validate("test"))

	err := Filter{"": "a.pdf"}.Validate("test")
	assert.True(t, HasCode(err, ErrCodeInvalidFilter))

	err = Filter{"tags": map[string]string{"a": "b"}}.Validate("test")
	assert.True(t, HasCode(err, ErrCodeInvalidFilter))
	assert.Contains(t, err.Error(), `"tags"`)
}
