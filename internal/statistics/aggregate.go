package statistics

import (
	"github.com/montanaflynn/stats"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
)

// Collapse averages the finest hierarchy level away, producing one row per
// parent of the finest level. The input must have at least two levels.
func Collapse(d *hstats.DesignMatrix) (*hstats.DesignMatrix, error) {
	depth := d.Depth()
	if depth < 2 {
		return nil, core.NewDegenerateInputError("cannot collapse a single-level design")
	}
	h := hstats.Hierarchy{Levels: d.Hierarchy().Levels[:depth-1]}

	var labels [][]float64
	var values []float64
	start := 0
	for i := 1; i <= d.Len(); i++ {
		if i < d.Len() && samePrefix(d, start, i, depth-1) {
			continue
		}
		group := make([]float64, 0, i-start)
		for j := start; j < i; j++ {
			group = append(group, d.Value(j))
		}
		mean, err := stats.Mean(group)
		if err != nil {
			return nil, core.NewDegenerateInputError("empty aggregation group")
		}
		labels = append(labels, d.Path(start)[:depth-1])
		values = append(values, mean)
		start = i
	}
	return hstats.NewDesignMatrix(h, labels, values)
}

// AggregateToUnits reduces a design to one row per exchangeable unit at the
// level directly below the treatment level: levels beyond the second are
// collapsed by repeated group means, then duplicate unit paths are merged.
// Single-level designs pass through unchanged (each row is its own unit).
func AggregateToUnits(d *hstats.DesignMatrix) (*hstats.DesignMatrix, error) {
	var err error
	for d.Depth() > 2 {
		if d, err = Collapse(d); err != nil {
			return nil, err
		}
	}
	if d.Depth() == 1 {
		return d, nil
	}
	return mergeDuplicateUnits(d)
}

// mergeDuplicateUnits averages rows that share a full (treatment, unit)
// path, so replicate observations at depth 2 become one row per unit.
func mergeDuplicateUnits(d *hstats.DesignMatrix) (*hstats.DesignMatrix, error) {
	var labels [][]float64
	var values []float64
	start := 0
	for i := 1; i <= d.Len(); i++ {
		if i < d.Len() && samePrefix(d, start, i, d.Depth()) {
			continue
		}
		group := make([]float64, 0, i-start)
		for j := start; j < i; j++ {
			group = append(group, d.Value(j))
		}
		mean, _ := stats.Mean(group)
		labels = append(labels, d.Path(start))
		values = append(values, mean)
		start = i
	}
	return hstats.NewDesignMatrix(d.Hierarchy(), labels, values)
}

func samePrefix(d *hstats.DesignMatrix, a, b, levels int) bool {
	for l := 0; l < levels; l++ {
		if d.Label(a, l) != d.Label(b, l) {
			return false
		}
	}
	return true
}
