package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Pipeline errors. Typed errors below unwrap to one of these so callers
// can branch with errors.Is.
var (
	// ErrConfig indicates invalid chunking, retrieval or provider settings.
	ErrConfig = errors.New("invalid configuration")

	// ErrCorruptDocument indicates a file is not a readable PDF.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrExtraction indicates a page or file failed during text extraction.
	ErrExtraction = errors.New("extraction failed")

	// ErrNoDocuments indicates the PDF directory is empty and no index exists.
	ErrNoDocuments = errors.New("no documents to index")

	// ErrIngestionFailed indicates a batch could not be embedded and stored.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrEmptyOrMissing indicates there is no populated index at a location.
	ErrEmptyOrMissing = errors.New("index empty or missing")

	// ErrQueryFailed indicates a question could not be answered.
	ErrQueryFailed = errors.New("query failed")

	// ErrUnsupportedFilter indicates a filter names an unknown field.
	ErrUnsupportedFilter = errors.New("unsupported filter")
)

// Service boundary errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the language model could not be reached.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrStorageBusy indicates the index store is locked by another writer.
	ErrStorageBusy = errors.New("storage busy")
)

// ConfigError describes an invalid setting. Err is the underlying failure,
// if any, such as a provider rejecting the configured credentials.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is matches ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// CorruptDocumentError is returned when a file cannot be opened as a PDF.
type CorruptDocumentError struct {
	Source string
	Path   string
	Err    error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("corrupt document %s (%s): %v", e.Source, e.Path, e.Err)
}

func (e *CorruptDocumentError) Unwrap() error { return e.Err }

// Is matches ErrCorruptDocument.
func (e *CorruptDocumentError) Is(target error) bool { return target == ErrCorruptDocument }

// ExtractionWarning reports a failure scoped to one file or page.
// Page is zero when the failure is not tied to a page.
type ExtractionWarning struct {
	Source string
	Page   int
	Err    error
}

func (e *ExtractionWarning) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extract %s page %d: %v", e.Source, e.Page, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionWarning) Unwrap() error { return e.Err }

// Is matches ErrExtraction.
func (e *ExtractionWarning) Is(target error) bool { return target == ErrExtraction }

// IngestionError reports a batch that was given up on after retries.
type IngestionError struct {
	// Batch is the 1-based batch number within the build run.
	Batch    int
	Size     int
	Attempts int
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest batch %d (%d chunks) failed after %d attempts: %v",
		e.Batch, e.Size, e.Attempts, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// Is matches ErrIngestionFailed.
func (e *IngestionError) Is(target error) bool { return target == ErrIngestionFailed }

// QueryError reports a failed question.
type QueryError struct {
	Question string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q failed: %v", e.Question, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is matches ErrQueryFailed.
func (e *QueryError) Is(target error) bool { return target == ErrQueryFailed }

// FilterError reports an unusable search filter.
type FilterError struct {
	Filter Filter
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("unsupported filter %s=%q: %s", e.Filter.Field, e.Filter.Value, e.Reason)
}

// Is matches ErrUnsupportedFilter.
func (e *FilterError) Is(target error) bool { return target == ErrUnsupportedFilter }

// IsTransient reports whether err is worth retrying: rate limiting, an
// unreachable service, a locked store or a network timeout.
// Cancellation of the caller's context is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrLLMUnavailable) ||
		errors.Is(err, ErrStorageBusy) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
