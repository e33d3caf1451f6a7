package grounding

import (
	"math"
	"strings"
)

// PartialRatio scores how well the shorter string aligns inside the longer
// one, from 0 to 100. Each window of the longer string with the length of the
// shorter one is compared by normalized longest common subsequence and the
// best window wins. Comparison is case-insensitive and rune-based.
func PartialRatio(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	short, long := ra, rb
	if len(short) > len(long) {
		short, long = long, short
	}

	best := 0.0
	for start := 0; start+len(short) <= len(long); start++ {
		r := ratio(short, long[start:start+len(short)])
		if r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return int(math.Round(best * 100))
}

// ratio is 2*LCS / (len(a)+len(b)).
func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(lcsLength(a, b)) / float64(total)
}

func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// BestScore returns the highest PartialRatio of value against any keyword.
func BestScore(value string, keywords []string) int {
	best := 0
	for _, kw := range keywords {
		if s := PartialRatio(kw, value); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}
