package resample

import (
	"math"
	"sort"
)

// multisetCount returns the number of distinct arrangements of the label
// multiset, n! over the product of the label multiplicities' factorials.
// Computed in log space so large designs do not overflow; callers only
// compare the result against an iteration budget.
func multisetCount(labels []float64) float64 {
	counts := map[float64]int{}
	for _, l := range labels {
		counts[l]++
	}
	lg, _ := math.Lgamma(float64(len(labels)) + 1)
	for _, c := range counts {
		t, _ := math.Lgamma(float64(c) + 1)
		lg -= t
	}
	return math.Round(math.Exp(lg))
}

// multisetPermutations enumerates every distinct arrangement of the label
// multiset in lexicographic order. Only invoked when the count fits the
// caller's iteration budget.
func multisetPermutations(labels []float64) [][]float64 {
	counts := map[float64]int{}
	for _, l := range labels {
		counts[l]++
	}
	distinct := make([]float64, 0, len(counts))
	for v := range counts {
		distinct = append(distinct, v)
	}
	sort.Float64s(distinct)

	remaining := make([]int, len(distinct))
	for i, v := range distinct {
		remaining[i] = counts[v]
	}

	var out [][]float64
	cur := make([]float64, 0, len(labels))
	var walk func()
	walk = func() {
		if len(cur) == len(labels) {
			arr := make([]float64, len(cur))
			copy(arr, cur)
			out = append(out, arr)
			return
		}
		for i, v := range distinct {
			if remaining[i] == 0 {
				continue
			}
			remaining[i]--
			cur = append(cur, v)
			walk()
			cur = cur[:len(cur)-1]
			remaining[i]++
		}
	}
	walk()
	return out
}
