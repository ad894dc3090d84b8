// Package apperr defines the error taxonomy shared by the ingestion and chat flows.
package apperr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidConfig indicates bad chunking parameters or an impossible configuration.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrEmbeddingFailure indicates the input could not be embedded.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrStoreUnavailable indicates the vector store or the cache could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound indicates an unknown document, session or booking id.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a malformed request body or an unsupported file type.
	ErrValidation = errors.New("validation error")
)

// IngestError reports the chunks that could not be written during one ingestion.
type IngestError struct {
	DocumentID string
	Total      int
	Failed     []int
	Err        error
}

func (e *IngestError) Error() string {
	idx := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		idx[i] = strconv.Itoa(f)
	}
	return fmt.Sprintf("ingest %s: %d of %d chunks failed to upsert (indices %s): %v",
		e.DocumentID, len(e.Failed), e.Total, strings.Join(idx, ","), e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// Code returns a short machine readable code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, ErrEmbeddingFailure):
		return "embedding_failure"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}
