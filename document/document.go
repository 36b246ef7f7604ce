package document

import "strconv"

// Well-known metadata keys set by the PDF loaders.
const (
	MetadataSource     = "source"
	MetadataPage       = "page"
	MetadataPageLabel  = "page_label"
	MetadataTotalPages = "total_pages"
)

// Document represents a text document with metadata
type Document struct {
	PageContent string   `json:"page_content"`
	Metadata    Metadata `json:"metadata"`
}

// Metadata is the key/value bag attached to a Document. Accessors never
// fail: a missing key, or a value of the wrong type, yields the zero value.
type Metadata map[string]any

// String returns the value for key when it is a string, "" otherwise.
func (m Metadata) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the value for key when it is an integral number, 0 otherwise.
func (m Metadata) Int(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// Source returns the "source" entry.
func (m Metadata) Source() string {
	return m.String(MetadataSource)
}

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FilterToMinimal reduces documents to their content plus the "source"
// metadata entry. Records without a source get an empty string.
func FilterToMinimal(docs []Document) []Document {
	minimal := make([]Document, 0, len(docs))
	for _, doc := range docs {
		minimal = append(minimal, Document{
			PageContent: doc.PageContent,
			Metadata:    Metadata{MetadataSource: doc.Metadata.Source()},
		})
	}
	return minimal
}
