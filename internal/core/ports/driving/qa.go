package driving

import (
	"context"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// QAEngine answers questions from indexed documents.
type QAEngine interface {
	// Answer retrieves chunks relevant to question, optionally restricted
	// to the document named by scope, and asks the language model.
	// An empty scope or domain.AllDocuments searches everything.
	// Failures are *domain.QueryError.
	Answer(ctx context.Context, index IndexHandle, question, scope string) (*domain.QueryResult, error)
}
