package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Abraxas-365/docingest/vectorstore"
)

const storeName = "inmemory"

type entry struct {
	doc    vectorstore.Document
	vector []float32
}

// InMemoryStore implements vectorstore.Store with brute-force cosine
// similarity. Intended for tests and small corpora.
type InMemoryStore struct {
	entries []entry
	mu      sync.RWMutex
}

var (
	_ vectorstore.Store    = (*InMemoryStore)(nil)
	_ vectorstore.Replacer = (*InMemoryStore)(nil)
)

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// AddDocuments stores docs with their vectors. Every vector must have the
// dimension of the vectors already stored; on error nothing is added.
func (s *InMemoryStore) AddDocuments(ctx context.Context, docs []vectorstore.Document, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkVectors(s.entries, docs, vectors); err != nil {
		return err
	}
	s.entries = appendEntries(s.entries, docs, vectors)
	return nil
}

// ReplaceDocuments removes the documents matching filter and adds docs
// under a single lock. On error the store is unchanged.
func (s *InMemoryStore) ReplaceDocuments(ctx context.Context, filter vectorstore.Filter, docs []vectorstore.Document, vectors [][]float32) error {
	if err := filter.Validate(storeName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !matches(e.doc, filter) {
			kept = append(kept, e)
		}
	}
	if err := checkVectors(kept, docs, vectors); err != nil {
		return err
	}
	s.entries = appendEntries(kept, docs, vectors)
	return nil
}

func checkVectors(existing []entry, docs []vectorstore.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return vectorstore.NewVectorCountMismatchError(storeName, len(docs), len(vectors))
	}
	if len(vectors) == 0 {
		return nil
	}
	want := len(vectors[0])
	if len(existing) > 0 {
		want = len(existing[0].vector)
	}
	for _, vec := range vectors {
		if len(vec) != want {
			return vectorstore.NewInvalidDimensionsError(storeName, want, len(vec))
		}
	}
	return nil
}

func appendEntries(entries []entry, docs []vectorstore.Document, vectors [][]float32) []entry {
	for i, doc := range docs {
		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		entries = append(entries, entry{
			doc:    vectorstore.Document{PageContent: doc.PageContent, Metadata: doc.Metadata.Clone()},
			vector: vec,
		})
	}
	return entries
}

// SimilaritySearch returns up to limit matching documents by descending
// cosine similarity. A non-positive limit returns every match.
func (s *InMemoryStore) SimilaritySearch(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	if err := filter.Validate(storeName); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]vectorstore.Document, 0, len(s.entries))
	for _, e := range s.entries {
		if !matches(e.doc, filter) {
			continue
		}
		if len(e.vector) != len(vector) {
			return nil, vectorstore.NewInvalidDimensionsError(storeName, len(e.vector), len(vector))
		}
		doc := e.doc
		doc.Metadata = e.doc.Metadata.Clone()
		doc.Score = cosine(e.vector, vector)
		results = append(results, doc)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, filter vectorstore.Filter) error {
	if err := filter.Validate(storeName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if !matches(e.doc, filter) {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = entry{}
	}
	s.entries = kept
	return nil
}

// Len returns the number of stored documents.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Documents returns a snapshot of the stored documents in insertion order.
func (s *InMemoryStore) Documents() []vectorstore.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]vectorstore.Document, len(s.entries))
	for i, e := range s.entries {
		docs[i] = vectorstore.Document{PageContent: e.doc.PageContent, Metadata: e.doc.Metadata.Clone()}
	}
	return docs
}

func matches(doc vectorstore.Document, filter vectorstore.Filter) bool {
	for key, want := range filter {
		got, ok := doc.Metadata[key]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
