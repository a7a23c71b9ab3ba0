package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a missing or malformed persona/job source or
	// application config. Fatal before any extraction happens.
	ErrConfiguration = errors.New("configuration error")

	// ErrExtraction marks a document that could not be parsed at all.
	ErrExtraction = errors.New("extraction failed")

	// ErrNoDocumentsExtracted is returned when documents were found but every
	// one of them failed extraction.
	ErrNoDocumentsExtracted = errors.New("no documents could be extracted")

	// ErrEmbedding marks an embedding failure for a single text.
	ErrEmbedding = errors.New("embedding failed")

	// ErrQueryEmbedding marks a failure to embed the query. Fatal.
	ErrQueryEmbedding = errors.New("query embedding failed")
)

// ExtractionError records which document failed and why.
type ExtractionError struct {
	Document string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Document, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}
