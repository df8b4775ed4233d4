package statistics

import (
	"math"

	gstat "gonum.org/v1/gonum/stat"

	"hierarchstats/domain/core"
)

// StudentizedCovariance computes the covariance of (x, y) divided by a
// jackknife estimate of the covariance's own standard error. Studentizing
// keeps the statistic stable under heteroscedasticity, which matters when
// treatment labels carry more than two values.
func StudentizedCovariance(x, y []float64) (float64, error) {
	n := len(x)
	if n != len(y) {
		return 0, core.NewDegenerateInputError("paired samples differ in length")
	}
	if n < 3 {
		return 0, core.NewDegenerateInputError("need at least 3 pairs to studentize a covariance")
	}

	cov := gstat.Covariance(x, y, nil)

	// Leave-one-out replicates of the covariance.
	loo := make([]float64, n)
	xi := make([]float64, 0, n-1)
	yi := make([]float64, 0, n-1)
	mean := 0.0
	for i := 0; i < n; i++ {
		xi = xi[:0]
		yi = yi[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			xi = append(xi, x[j])
			yi = append(yi, y[j])
		}
		loo[i] = gstat.Covariance(xi, yi, nil)
		mean += loo[i]
	}
	mean /= float64(n)

	ssq := 0.0
	for _, v := range loo {
		d := v - mean
		ssq += d * d
	}
	se := math.Sqrt(float64(n-1) / float64(n) * ssq)
	if se == 0 {
		return 0, core.NewDegenerateInputError("covariance has zero estimated standard error")
	}
	return cov / se, nil
}

// CovarianceStatistic adapts StudentizedCovariance to the unit-level
// Statistic interface, treating the treatment labels as the x variable.
type CovarianceStatistic struct{}

func (CovarianceStatistic) Name() string { return StatStudentizedCovariance }

func (CovarianceStatistic) Compute(labels, values []float64) (float64, error) {
	return StudentizedCovariance(labels, values)
}
