package document

// Splitter interface defines methods for splitting text into chunks
type Splitter interface {
	SplitText(text string) ([]string, error)
}

// SplitDocuments splits multiple documents using a splitter
func SplitDocuments(splitter Splitter, documents []Document) ([]Document, error) {
	texts := make([]string, len(documents))
	metadatas := make([]Metadata, len(documents))

	for i, doc := range documents {
		texts[i] = doc.PageContent
		metadatas[i] = doc.Metadata
	}

	return CreateDocuments(splitter, texts, metadatas)
}

// CreateDocuments creates documents from texts and metadata. Every chunk
// receives its own copy of the source metadata.
func CreateDocuments(splitter Splitter, texts []string, metadatas []Metadata) ([]Document, error) {
	if len(metadatas) == 0 {
		metadatas = make([]Metadata, len(texts))
	}

	if len(texts) != len(metadatas) {
		return nil, ErrMetadataTextMismatch
	}

	documents := make([]Document, 0, len(texts))

	for i := range texts {
		chunks, err := splitter.SplitText(texts[i])
		if err != nil {
			return nil, &SplitterError{
				Op:      "split_documents",
				Message: "failed to split document text",
				Err:     err,
			}
		}

		for _, chunk := range chunks {
			documents = append(documents, Document{
				PageContent: chunk,
				Metadata:    metadatas[i].Clone(),
			})
		}
	}

	return documents, nil
}
