package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrConfig", ErrConfig},
		{"ErrCorruptDocument", ErrCorruptDocument},
		{"ErrExtraction", ErrExtraction},
		{"ErrNoDocuments", ErrNoDocuments},
		{"ErrIngestionFailed", ErrIngestionFailed},
		{"ErrEmptyOrMissing", ErrEmptyOrMissing},
		{"ErrQueryFailed", ErrQueryFailed},
		{"ErrUnsupportedFilter", ErrUnsupportedFilter},
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestConfigError(t *testing.T) {
	err := fmt.Errorf("load settings: %w", &ConfigError{Field: "ingest.chunk_overlap", Reason: "too big"})

	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "ingest.chunk_overlap")

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "too big", cfgErr.Reason)
}

func TestConfigError_WithCause(t *testing.T) {
	err := &ConfigError{Field: "llm.base_url", Reason: "ollama is unreachable", Err: ErrLLMUnavailable}

	assert.ErrorIs(t, err, ErrConfig)
	assert.ErrorIs(t, err, ErrLLMUnavailable)
	assert.Equal(t,
		"invalid configuration: llm.base_url: ollama is unreachable: LLM service unavailable", err.Error())
}

func TestCorruptDocumentError(t *testing.T) {
	cause := errors.New("not a PDF file")
	err := &CorruptDocumentError{Source: "a.pdf", Path: "/corpus/a.pdf", Err: cause}

	assert.ErrorIs(t, err, ErrCorruptDocument)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "a.pdf")
	assert.Contains(t, err.Error(), "/corpus/a.pdf")
}

func TestExtractionWarning(t *testing.T) {
	t.Run("with page", func(t *testing.T) {
		err := &ExtractionWarning{Source: "a.pdf", Page: 4, Err: errors.New("bad font")}
		assert.ErrorIs(t, err, ErrExtraction)
		assert.Equal(t, "extract a.pdf page 4: bad font", err.Error())
	})

	t.Run("without page", func(t *testing.T) {
		err := &ExtractionWarning{Source: "a.pdf", Err: errors.New("boom")}
		assert.Equal(t, "extract a.pdf: boom", err.Error())
	})
}

func TestIngestionError(t *testing.T) {
	cause := ErrRateLimited
	err := &IngestionError{Batch: 3, Size: 64, Attempts: 3, Err: cause}

	assert.ErrorIs(t, err, ErrIngestionFailed)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "batch 3")
	assert.Contains(t, err.Error(), "3 attempts")
}

func TestQueryError(t *testing.T) {
	err := &QueryError{Question: "высота ограждения?", Err: ErrLLMUnavailable}

	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "высота ограждения?")
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", fmt.Errorf("embed: %w", ErrRateLimited), true},
		{"embedding unavailable", ErrEmbeddingUnavailable, true},
		{"llm unavailable", ErrLLMUnavailable, true},
		{"storage busy", fmt.Errorf("saving entry: %w", ErrStorageBusy), true},
		{"deadline", ctx.Err(), true},
		{"net timeout", timeoutErr{}, true},
		{"canceled", context.Canceled, false},
		{"invalid input", ErrInvalidInput, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestBuildReport_Err(t *testing.T) {
	r := &BuildReport{}
	assert.NoError(t, r.Err())

	r.Errors = append(r.Errors, &IngestionError{Batch: 1, Err: ErrRateLimited})
	assert.ErrorIs(t, r.Err(), ErrIngestionFailed)
}
