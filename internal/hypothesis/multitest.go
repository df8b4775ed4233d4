package hypothesis

import (
	"context"
	"fmt"
	"sort"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
)

// Multiple-comparison corrections accepted by MultiSampleTest.
const (
	CorrectionHolm = "holm"
	CorrectionBH   = "bh"
	CorrectionNone = "none"
)

// MultiSampleTest runs the two-sample test over every pair of treatment
// groups, applies the requested correction to the p-values, and returns
// one result per comparison ordered by ascending corrected p-value.
// Each pair draws from its own derived seed, so adding a group does not
// perturb the other comparisons.
func MultiSampleTest(ctx context.Context, d *hstats.DesignMatrix, opts Options, correction string) ([]*hstats.TestResult, error) {
	if correction == "" {
		correction = CorrectionHolm
	}
	switch correction {
	case CorrectionHolm, CorrectionBH, CorrectionNone:
	default:
		return nil, core.NewDegenerateInputError(fmt.Sprintf("unknown correction %q", correction))
	}

	groups := d.TreatmentGroups()
	if len(groups) < 2 {
		return nil, core.NewDegenerateInputError("multi-sample test needs at least 2 treatment groups")
	}

	rng := core.NewRNG(opts.Seed)
	var results []*hstats.TestResult
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			sub, err := d.Select(groups[i], groups[j])
			if err != nil {
				return nil, err
			}
			pairOpts := opts
			pairOpts.Seed = rng.Stream(fmt.Sprintf("pair-%g-%g", groups[i], groups[j])).Int63()
			res, err := Test(ctx, sub, pairOpts)
			if err != nil {
				return nil, fmt.Errorf("comparison %g vs %g: %w", groups[i], groups[j], err)
			}
			results = append(results, res)
		}
	}

	applyCorrection(results, correction)
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].CorrectedP != results[b].CorrectedP {
			return results[a].CorrectedP < results[b].CorrectedP
		}
		return results[a].PValue < results[b].PValue
	})
	return results, nil
}

// applyCorrection sets CorrectedP on each result in place. Holm is a
// step-down procedure, Benjamini-Hochberg a step-up one; both leave the
// corrected values monotonically non-decreasing in the raw p-value order.
func applyCorrection(results []*hstats.TestResult, correction string) {
	m := len(results)
	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].PValue < results[order[b]].PValue
	})

	corrected := make([]float64, m)
	switch correction {
	case CorrectionHolm:
		running := 0.0
		for rank, idx := range order {
			adj := float64(m-rank) * results[idx].PValue
			if adj > running {
				running = adj
			}
			corrected[idx] = clampUnit(running)
		}
	case CorrectionBH:
		running := 1.0
		for rank := m - 1; rank >= 0; rank-- {
			idx := order[rank]
			adj := float64(m) * results[idx].PValue / float64(rank+1)
			if adj < running {
				running = adj
			}
			corrected[idx] = clampUnit(running)
		}
	default:
		for i, r := range results {
			corrected[i] = r.PValue
		}
	}

	for i, r := range results {
		r.CorrectedP = corrected[i]
		r.Correction = correction
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
