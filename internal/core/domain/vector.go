package domain

import (
	"math"
	"sort"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length or zero norm have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// RankCandidates drops candidates below opts.ScoreThreshold, orders the
// rest by descending relevance (ties by id) and keeps at most opts.FetchK.
// The input slice is reordered.
func RankCandidates(cands []ScoredEntry, opts SearchOptions) []ScoredEntry {
	kept := cands[:0]
	for _, c := range cands {
		if c.Relevance >= opts.ScoreThreshold {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Relevance != kept[j].Relevance {
			return kept[i].Relevance > kept[j].Relevance
		}
		return kept[i].ID < kept[j].ID
	})
	if opts.FetchK > 0 && len(kept) > opts.FetchK {
		kept = kept[:opts.FetchK]
	}
	return kept
}
