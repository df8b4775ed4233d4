package resample

import (
	"fmt"
	"math"
	"math/rand"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
)

// Permuter shuffles one label level of a design in a cluster-aware way.
// The permutation unit is the node one level below the permuted level;
// units are exchangeable only with siblings sharing the same ancestors
// above the permuted level. Level 0 therefore gets a plain shuffle.
type Permuter struct {
	level      int
	unitLabels []float64 // permuted-level label of each unit
	counts     []int     // rows per unit
	strata     [][]int   // unit indices per stratum (same ancestors)
	rows       int
}

// Fit analyzes the cluster structure around the permuted level.
func (p *Permuter) Fit(d *hstats.DesignMatrix, level int) error {
	if level < 0 || level >= d.Depth() {
		return core.NewDegenerateInputError(fmt.Sprintf("permutation level %d out of bounds", level))
	}
	units := nodeSpans(d, level+1)

	p.level = level
	p.rows = d.Len()
	p.unitLabels = make([]float64, len(units))
	p.counts = make([]int, len(units))
	p.strata = nil

	var stratum []int
	for i, u := range units {
		p.unitLabels[i] = d.Label(u.start, level)
		p.counts[i] = u.end - u.start
		if i > 0 && !equalPrefix(d, units[i-1].start, u.start, level) {
			p.strata = append(p.strata, stratum)
			stratum = nil
		}
		stratum = append(stratum, i)
	}
	p.strata = append(p.strata, stratum)
	return nil
}

// Units returns the number of permutation units.
func (p *Permuter) Units() int {
	return len(p.unitLabels)
}

// UnitLabels returns a copy of the per-unit labels at the permuted level.
func (p *Permuter) UnitLabels() []float64 {
	out := make([]float64, len(p.unitLabels))
	copy(out, p.unitLabels)
	return out
}

// Total returns the number of distinct labelings reachable by permutation,
// the product of the per-stratum multiset counts.
func (p *Permuter) Total() float64 {
	total := 1.0
	for _, stratum := range p.strata {
		labels := make([]float64, len(stratum))
		for i, u := range stratum {
			labels[i] = p.unitLabels[u]
		}
		total *= multisetCount(labels)
		if math.IsInf(total, 1) {
			return total
		}
	}
	return total
}

// Column draws one random stratified permutation and returns the full
// permuted label column, expanded to one entry per row.
func (p *Permuter) Column(rng *rand.Rand) []float64 {
	shuffled := make([]float64, len(p.unitLabels))
	copy(shuffled, p.unitLabels)
	for _, stratum := range p.strata {
		rng.Shuffle(len(stratum), func(a, b int) {
			ia, ib := stratum[a], stratum[b]
			shuffled[ia], shuffled[ib] = shuffled[ib], shuffled[ia]
		})
	}
	return p.expand(shuffled)
}

// Exact enumerates every distinct permuted column. Only available when the
// permuted level is the top level, matching the original contract; nested
// strata have too many arrangements to be worth enumerating.
func (p *Permuter) Exact() ([][]float64, error) {
	if p.level != 0 {
		return nil, core.NewDegenerateInputError("exact permutation only available for the top level")
	}
	perms := multisetPermutations(p.unitLabels)
	out := make([][]float64, len(perms))
	for i, perm := range perms {
		out[i] = p.expand(perm)
	}
	return out, nil
}

// Apply returns a variant of d with the permuted column installed.
func (p *Permuter) Apply(d *hstats.DesignMatrix, column []float64) *hstats.DesignMatrix {
	return d.WithColumn(p.level, column)
}

func (p *Permuter) expand(unitLabels []float64) []float64 {
	out := make([]float64, 0, p.rows)
	for i, l := range unitLabels {
		for c := 0; c < p.counts[i]; c++ {
			out = append(out, l)
		}
	}
	return out
}
