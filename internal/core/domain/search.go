package domain

import "strings"

// AllDocuments is the scope value meaning "search the whole corpus".
const AllDocuments = "Все документы"

// NoInformationMarker is the phrase the answer prompt asks the model to use
// when the context does not contain an answer.
const NoInformationMarker = "нет информации"

// Retrieval defaults.
const (
	DefaultK              = 10
	DefaultFetchK         = 30
	DefaultScoreThreshold = 0.4
	DefaultMMRLambda      = 0.5
)

// SearchOptions configures an MMR search against the index.
type SearchOptions struct {
	// K is the number of results to return.
	K int

	// FetchK is the size of the candidate pool MMR selects from.
	FetchK int

	// ScoreThreshold drops candidates with lower relevance.
	ScoreThreshold float64

	// Lambda trades relevance (1) against diversity (0).
	Lambda float64

	// Filter is an optional exact-match metadata restriction.
	Filter Filter
}

// DefaultSearchOptions returns the options used for question answering.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		K:              DefaultK,
		FetchK:         DefaultFetchK,
		ScoreThreshold: DefaultScoreThreshold,
		Lambda:         DefaultMMRLambda,
	}
}

// ScopeFilter builds the search filter for a scope selection.
// A blank scope or AllDocuments means no restriction; any other value must
// equal a source name exactly.
func ScopeFilter(scope string) Filter {
	switch strings.TrimSpace(scope) {
	case "", AllDocuments:
		return Filter{}
	}
	return SourceFilter(scope)
}

// QueryResult is the answer to one question.
type QueryResult struct {
	// Question is the question as asked.
	Question string

	// Answer is the raw model output.
	Answer string

	// Sources are the retrieved chunks in retrieval order.
	Sources []Chunk
}

// InsufficientContext reports whether the model said the documents hold
// no answer. Callers should then present Sources as supplementary context.
func (r QueryResult) InsufficientContext() bool {
	return strings.Contains(strings.ToLower(r.Answer), NoInformationMarker)
}
