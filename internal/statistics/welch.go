package statistics

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"hierarchstats/domain/core"
)

// Welch computes Welch's t-type statistic for two samples with unequal
// variances: (mean(a) - mean(b)) / sqrt(var(a)/na + var(b)/nb).
// Antisymmetric under swapping the samples.
func Welch(a, b []float64) (float64, error) {
	na, nb := float64(len(a)), float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return 0, core.NewDegenerateInputError("each sample needs at least 2 observations")
	}
	meanA, _ := stats.Mean(a)
	meanB, _ := stats.Mean(b)
	varA, _ := stats.SampleVariance(a)
	varB, _ := stats.SampleVariance(b)
	if varA == 0 || varB == 0 {
		return 0, core.NewDegenerateInputError("sample has zero variance")
	}
	se := math.Sqrt(varA/na + varB/nb)
	return (meanA - meanB) / se, nil
}

// WelchDF returns the Welch-Satterthwaite degrees of freedom.
func WelchDF(a, b []float64) (float64, error) {
	na, nb := float64(len(a)), float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return 0, core.NewDegenerateInputError("each sample needs at least 2 observations")
	}
	varA, _ := stats.SampleVariance(a)
	varB, _ := stats.SampleVariance(b)
	if varA == 0 && varB == 0 {
		return 0, core.NewDegenerateInputError("both samples have zero variance")
	}
	ra, rb := varA/na, varB/nb
	return math.Pow(ra+rb, 2) / (ra*ra/(na-1) + rb*rb/(nb-1)), nil
}

// WelchPValue returns the two-tailed parametric p-value for a Welch
// statistic under Student's t with the given degrees of freedom. Reported
// for reference alongside the permutation p-value.
func WelchPValue(t, df float64) float64 {
	if df <= 0 {
		return 1.0
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - tDist.CDF(math.Abs(t)))
}

// WelchStatistic adapts Welch to the unit-level Statistic interface.
type WelchStatistic struct{}

func (WelchStatistic) Name() string { return StatWelch }

func (WelchStatistic) Compute(labels, values []float64) (float64, error) {
	a, b, err := SplitByLabel(labels, values)
	if err != nil {
		return 0, err
	}
	return Welch(a, b)
}
