package services

import (
	"math"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// selectMMR picks up to k candidates by maximal marginal relevance.
//
// Candidates must already be ranked by descending relevance. The first pick
// is the most relevant candidate; each later pick maximises
//
//	lambda*relevance - (1-lambda)*max(similarity to already picked)
//
// Ties keep the earlier candidate so the result is deterministic.
func selectMMR(cands []domain.ScoredEntry, k int, lambda float64) []domain.ScoredEntry {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	selected := make([]domain.ScoredEntry, 0, min(k, len(cands)))
	used := make([]bool, len(cands))

	// redundancy[i] is the highest similarity of candidate i to any pick.
	redundancy := make([]float64, len(cands))
	for i := range redundancy {
		redundancy[i] = math.Inf(-1)
	}

	for len(selected) < k && len(selected) < len(cands) {
		best := -1
		bestScore := math.Inf(-1)
		for i, c := range cands {
			if used[i] {
				continue
			}
			score := c.Relevance
			if len(selected) > 0 {
				score = lambda*c.Relevance - (1-lambda)*redundancy[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}

		used[best] = true
		pick := cands[best]
		selected = append(selected, pick)

		for i, c := range cands {
			if used[i] {
				continue
			}
			if sim := domain.CosineSimilarity(c.Embedding, pick.Embedding); sim > redundancy[i] {
				redundancy[i] = sim
			}
		}
	}
	return selected
}
