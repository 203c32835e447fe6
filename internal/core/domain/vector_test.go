package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 0}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, CosineSimilarity(nil, nil))
}

func TestRankCandidates(t *testing.T) {
	cands := []ScoredEntry{
		{IndexEntry: IndexEntry{ID: "low"}, Relevance: 0.2},
		{IndexEntry: IndexEntry{ID: "b"}, Relevance: 0.7},
		{IndexEntry: IndexEntry{ID: "top"}, Relevance: 0.9},
		{IndexEntry: IndexEntry{ID: "a"}, Relevance: 0.7},
		{IndexEntry: IndexEntry{ID: "edge"}, Relevance: 0.4},
	}

	ranked := RankCandidates(cands, SearchOptions{ScoreThreshold: 0.4, FetchK: 3})

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"top", "a", "b"}, ids)
}

func TestRankCandidates_NoLimit(t *testing.T) {
	cands := []ScoredEntry{
		{IndexEntry: IndexEntry{ID: "x"}, Relevance: 0.5},
		{IndexEntry: IndexEntry{ID: "y"}, Relevance: 0.1},
	}

	ranked := RankCandidates(cands, SearchOptions{})

	assert.Len(t, ranked, 2)
	assert.Equal(t, "x", ranked[0].ID)
}
