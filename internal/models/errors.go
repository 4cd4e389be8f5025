package models

import (
	"errors"
	"fmt"
)

// ErrEmbeddingUnavailable signals that the injected embedding capability
// failed or timed out. The affected chunk is indexed lexically only.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// IngestionError reports a document that could not be ingested (empty or
// unchunkable content). It is scoped to one document and never aborts a batch.
type IngestionError struct {
	DocumentID string
	Reason     string
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed for document %s: %s", e.DocumentID, e.Reason)
}

// QueryError reports invalid query parameters. Returned to the caller before
// the cache or index is touched; there are no partial results.
type QueryError struct {
	Reason string
}

func (e *QueryError) Error() string {
	return "invalid query: " + e.Reason
}

// NewQueryError builds a QueryError with a formatted reason.
func NewQueryError(format string, args ...any) *QueryError {
	return &QueryError{Reason: fmt.Sprintf(format, args...)}
}

// DimensionMismatchError reports a vector whose length disagrees with the
// store's fixed dimension. The offending chunk is skipped; siblings continue.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, expected %d", e.Got, e.Want)
}
