// Package resample implements cluster-aware randomization over hierarchical
// designs: a nested bootstrap for the levels below the treatment level and a
// stratified permuter for the treatment labels themselves. Both respect
// exchangeability only within siblings under the same parent.
package resample

import (
	hstats "hierarchstats/domain/stats"
)

// span marks a contiguous run of rows belonging to one node of the
// hierarchy. Contiguity is guaranteed by the design matrix sort invariant.
type span struct {
	start, end int
}

// nodeSpans returns the ordered row spans of the distinct nodes at a level,
// i.e. the distinct label-path prefixes of length level+1. level == depth
// treats every row as its own node.
func nodeSpans(d *hstats.DesignMatrix, level int) []span {
	if level >= d.Depth() {
		out := make([]span, d.Len())
		for i := range out {
			out[i] = span{i, i + 1}
		}
		return out
	}
	var out []span
	start := 0
	for i := 1; i <= d.Len(); i++ {
		if i < d.Len() && equalPrefix(d, start, i, level+1) {
			continue
		}
		out = append(out, span{start, i})
		start = i
	}
	return out
}

// childCounts returns, for each node at the given level, how many children
// it has one level down. Children of the finest label level are the rows.
func childCounts(d *hstats.DesignMatrix, level int) []int {
	parents := nodeSpans(d, level)
	counts := make([]int, len(parents))
	if level+1 >= d.Depth() {
		for i, p := range parents {
			counts[i] = p.end - p.start
		}
		return counts
	}
	children := nodeSpans(d, level+1)
	ci := 0
	for i, p := range parents {
		for ci < len(children) && children[ci].start < p.end {
			counts[i]++
			ci++
		}
	}
	return counts
}

func equalPrefix(d *hstats.DesignMatrix, a, b, levels int) bool {
	for l := 0; l < levels; l++ {
		if d.Label(a, l) != d.Label(b, l) {
			return false
		}
	}
	return true
}
