// Package statistics implements the test statistic evaluators and the
// descriptive helpers shared by the resampling orchestrators. Evaluators
// operate on unit-level data: one treatment label and one aggregated
// observation per exchangeable unit.
package statistics

import (
	"fmt"

	"hierarchstats/domain/core"
)

// Statistic evaluates a scalar test statistic on unit-level data. labels
// holds the treatment label of each unit, values the unit observations.
type Statistic interface {
	Name() string
	Compute(labels, values []float64) (float64, error)
}

// Statistic names accepted by ByName.
const (
	StatWelch                 = "welch"
	StatStudentizedCovariance = "studentized_covariance"
)

// ByName acts as the factory for test statistics.
func ByName(name string) (Statistic, error) {
	switch name {
	case StatWelch, "":
		return WelchStatistic{}, nil
	case StatStudentizedCovariance:
		return CovarianceStatistic{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidStatistic, name)
	}
}

// SplitByLabel partitions values into two samples by the two distinct
// labels present, lower label first.
func SplitByLabel(labels, values []float64) (a, b []float64, err error) {
	if len(labels) != len(values) {
		return nil, nil, core.NewDegenerateInputError("label and value counts differ")
	}
	first, second, seen := 0.0, 0.0, 0
	for _, l := range labels {
		switch {
		case seen == 0:
			first, seen = l, 1
		case seen == 1 && l != first:
			second, seen = l, 2
		case l != first && l != second:
			return nil, nil, core.NewDegenerateInputError("more than two treatment labels")
		}
	}
	if seen < 2 {
		return nil, nil, core.NewDegenerateInputError("fewer than two treatment labels")
	}
	if second < first {
		first, second = second, first
	}
	for i, l := range labels {
		if l == first {
			a = append(a, values[i])
		} else {
			b = append(b, values[i])
		}
	}
	return a, b, nil
}
