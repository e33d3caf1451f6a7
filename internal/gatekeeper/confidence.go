package gatekeeper

import "sort"

const (
	lowConfidenceScore = 0.5
	ambiguousScoreGap  = 0.1
)

// ShowLowConfidenceHint reports whether retrieval looks ambiguous: the best
// score is below 0.5 or the two best scores are less than 0.1 apart.
func ShowLowConfidenceHint(scores []float64) bool {
	if len(scores) == 0 {
		return false
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	if sorted[0] < lowConfidenceScore {
		return true
	}
	return len(sorted) >= 2 && sorted[0]-sorted[1] < ambiguousScoreGap
}
