// Package pipeline chains loading, normalisation, chunking and embedding of
// PDF documents.
package pipeline

import (
	"context"

	"github.com/Abraxas-365/docingest/adapters/huggingface"
	"github.com/Abraxas-365/docingest/adapters/pdf"
	"github.com/Abraxas-365/docingest/datasource"
	"github.com/Abraxas-365/docingest/document"
)

// LoadPDFFiles returns one record per page of every PDF in dir, in lexical
// file order then page order.
func LoadPDFFiles(ctx context.Context, dir string, opts ...datasource.Option) ([]document.Document, error) {
	return pdf.NewDirectorySource(dir).Load(ctx, opts...)
}

// FilterToMinimalDocs reduces each record's metadata to its source.
func FilterToMinimalDocs(docs []document.Document) []document.Document {
	return document.FilterToMinimal(docs)
}

// TextSplit chunks docs with the recursive character splitter, 500/20 by
// default.
func TextSplit(docs []document.Document, opts ...document.SplitterOption) ([]document.Document, error) {
	splitter, err := document.NewRecursiveCharacterSplitter(opts...)
	if err != nil {
		return nil, err
	}
	return splitter.SplitDocuments(docs)
}

// DownloadHuggingFaceEmbeddings builds the default sentence-embedding model
// handle, fetching weights on first use.
func DownloadHuggingFaceEmbeddings(ctx context.Context, opts ...huggingface.Option) (*huggingface.Embedder, error) {
	return huggingface.New(ctx, opts...)
}
