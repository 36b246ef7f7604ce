package vectorstore

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a VectorStoreError.
type ErrorCode string

const (
	ErrCodeInitFailed        ErrorCode = "INIT_FAILED"
	ErrCodeAddFailed         ErrorCode = "ADD_FAILED"
	ErrCodeReplaceFailed     ErrorCode = "REPLACE_FAILED"
	ErrCodeSearchFailed      ErrorCode = "SEARCH_FAILED"
	ErrCodeDeleteFailed      ErrorCode = "DELETE_FAILED"
	ErrCodeInvalidDimensions ErrorCode = "INVALID_DIMENSIONS"
	ErrCodeInvalidFilter     ErrorCode = "INVALID_FILTER"
	ErrCodeEmbeddingFailed   ErrorCode = "EMBEDDING_FAILED"
)

// VectorStoreError is returned by stores and by VectorStore.
type VectorStoreError struct {
	Code    ErrorCode
	Op      string
	Store   string
	Message string
	Err     error
}

func (e *VectorStoreError) Error() string {
	msg := fmt.Sprintf("%s %s: %s [%s]", e.Store, e.Op, e.Message, e.Code)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *VectorStoreError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is a VectorStoreError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var vsErr *VectorStoreError
	return errors.As(err, &vsErr) && vsErr.Code == code
}

func newError(code ErrorCode, op, store, message string, err error) error {
	return &VectorStoreError{Code: code, Op: op, Store: store, Message: message, Err: err}
}

func NewInitFailedError(store string, err error) error {
	return newError(ErrCodeInitFailed, "InitDB", store, "initialization failed", err)
}

func NewAddFailedError(store string, err error) error {
	return newError(ErrCodeAddFailed, "AddDocuments", store, "could not store documents", err)
}

// NewReplaceFailedError reports a failed delete-then-add of one filter's
// documents. The store is left as it was before the call.
func NewReplaceFailedError(store string, err error) error {
	return newError(ErrCodeReplaceFailed, "ReplaceDocuments", store, "could not replace documents", err)
}

func NewSearchFailedError(store string, err error) error {
	return newError(ErrCodeSearchFailed, "SimilaritySearch", store, "search failed", err)
}

func NewDeleteFailedError(store string, err error) error {
	return newError(ErrCodeDeleteFailed, "Delete", store, "could not delete documents", err)
}

func NewInvalidDimensionsError(store string, expected, got int) error {
	return newError(ErrCodeInvalidDimensions, "AddDocuments", store,
		fmt.Sprintf("vector has %d dimensions, want %d", got, expected), nil)
}

func NewVectorCountMismatchError(store string, docs, vectors int) error {
	return newError(ErrCodeInvalidDimensions, "AddDocuments", store,
		fmt.Sprintf("got %d vectors for %d documents", vectors, docs), nil)
}

func NewInvalidFilterError(store string, details string) error {
	return newError(ErrCodeInvalidFilter, "Filter", store, details, nil)
}

func NewEmbeddingFailedError(store string, err error) error {
	return newError(ErrCodeEmbeddingFailed, "Embed", store, "embedding failed", err)
}
