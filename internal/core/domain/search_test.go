package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeFilter(t *testing.T) {
	assert.True(t, ScopeFilter("").IsZero())
	assert.True(t, ScopeFilter("  ").IsZero())
	assert.True(t, ScopeFilter(AllDocuments).IsZero())
	assert.Equal(t, SourceFilter("a.pdf"), ScopeFilter("a.pdf"))

	// Names are matched exactly, surrounding spaces included.
	assert.Equal(t, SourceFilter(" СП РК 2.04.pdf "), ScopeFilter(" СП РК 2.04.pdf "))
	assert.True(t, ScopeFilter(" "+AllDocuments+" ").IsZero())
}

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions()

	assert.Equal(t, 10, opts.K)
	assert.Equal(t, 30, opts.FetchK)
	assert.InDelta(t, 0.4, opts.ScoreThreshold, 1e-9)
	assert.True(t, opts.Filter.IsZero())
}

func TestQueryResult_InsufficientContext(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"В документах нет информации о высоте.", true},
		{"НЕТ ИНФОРМАЦИИ", true},
		{"Согласно п. 4.2, высота 1,2 м.", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			assert.Equal(t, tt.want, QueryResult{Answer: tt.answer}.InsufficientContext())
		})
	}
}
