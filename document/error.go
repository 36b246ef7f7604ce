package document

import "fmt"

// SplitterError represents errors that can occur during text splitting
type SplitterError struct {
	Op      string
	Message string
	Err     error
}

func (e *SplitterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("splitter.%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("splitter.%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error
func (e *SplitterError) Unwrap() error {
	return e.Err
}

var (
	ErrMetadataTextMismatch = &SplitterError{
		Op:      "split_documents",
		Message: "number of texts and metadata entries must match",
	}
)

// validateChunking checks the size/overlap pair shared by every splitter.
func validateChunking(op string, chunkSize, chunkOverlap int) error {
	if chunkSize <= 0 {
		return &SplitterError{
			Op:      op,
			Message: "chunkSize must be positive",
			Err:     fmt.Errorf("invalid chunkSize: %d", chunkSize),
		}
	}
	if chunkOverlap < 0 {
		return &SplitterError{
			Op:      op,
			Message: "chunkOverlap must be non-negative",
			Err:     fmt.Errorf("invalid chunkOverlap: %d", chunkOverlap),
		}
	}
	if chunkOverlap >= chunkSize {
		return &SplitterError{
			Op:      op,
			Message: "chunkOverlap must be less than chunkSize",
			Err:     fmt.Errorf("overlap %d >= chunk size %d", chunkOverlap, chunkSize),
		}
	}
	return nil
}
