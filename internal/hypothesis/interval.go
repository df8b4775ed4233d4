package hypothesis

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
	"hierarchstats/internal/resample"
	"hierarchstats/internal/statistics"
)

// FromDistribution inverts a finalized bootstrap or null distribution into
// interval bounds at the requested coverage via interpolated quantiles.
func FromDistribution(dist *hstats.NullDistribution, coverage float64) (hstats.Interval, error) {
	if coverage <= 0 || coverage >= 1 {
		return hstats.Interval{}, fmt.Errorf("%w: got %g", core.ErrInvalidCoverage, coverage)
	}
	unique, err := dist.UniqueCount()
	if err != nil {
		return hstats.Interval{}, err
	}
	// resolving tail quantiles of width (1-c)/2 needs at least 2/(1-c)
	// distinct values
	if required := int(math.Ceil(2 / (1 - coverage))); unique < required {
		return hstats.Interval{}, core.NewDegenerateInputError(fmt.Sprintf(
			"distribution has %d unique values, need %d for coverage %g", unique, required, coverage))
	}

	alpha := (1 - coverage) / 2
	lower, err := dist.Quantile(alpha)
	if err != nil {
		return hstats.Interval{}, err
	}
	upper, err := dist.Quantile(1 - alpha)
	if err != nil {
		return hstats.Interval{}, err
	}
	return hstats.Interval{Lower: lower, Upper: upper, Coverage: coverage}, nil
}

// ConfidenceInterval builds the bootstrap distribution of the test
// statistic and inverts it into percentile bounds. Units are resampled
// with replacement within their treatment group, on top of a nested
// bootstrap of any lower levels. Deterministic under a fixed seed.
func ConfidenceInterval(ctx context.Context, d *hstats.DesignMatrix, coverage float64, opts Options) (hstats.Interval, error) {
	if coverage <= 0 || coverage >= 1 {
		return hstats.Interval{}, fmt.Errorf("%w: got %g", core.ErrInvalidCoverage, coverage)
	}
	opts = opts.normalized()
	stat, err := statistics.ByName(opts.Statistic)
	if err != nil {
		return hstats.Interval{}, err
	}

	agg, err := statistics.AggregateToUnits(d)
	if err != nil {
		return hstats.Interval{}, err
	}
	if err := checkExchangeability(agg); err != nil {
		return hstats.Interval{}, err
	}

	boot, err := resample.NewBootstrapper(opts.Kind, opts.Skip...)
	if err != nil {
		return hstats.Interval{}, err
	}
	if err := boot.Fit(d); err != nil {
		return hstats.Interval{}, err
	}

	iterations := opts.Bootstraps * 10
	if iterations < 1000 {
		iterations = 1000
	}
	rng := core.NewRNG(opts.Seed)
	blocks := make([][]float64, opts.Workers)
	per := (iterations + opts.Workers - 1) / opts.Workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lo, hi := w*per, (w+1)*per
			if hi > iterations {
				hi = iterations
			}
			var values []float64
			for it := lo; it < hi; it++ {
				v, err := bootstrapStatistic(d, boot, stat, rng, it)
				if err != nil {
					if core.IsDegenerateInput(err) {
						continue
					}
					return err
				}
				values = append(values, v)
			}
			blocks[w] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return hstats.Interval{}, err
	}

	dist := hstats.NewNullDistribution(iterations)
	for _, block := range blocks {
		if err := dist.AppendAll(block); err != nil {
			return hstats.Interval{}, err
		}
	}
	dist.Finalize()
	return FromDistribution(dist, coverage)
}

// bootstrapStatistic draws one bootstrap replicate of the statistic: a
// nested bootstrap of the lower levels, aggregation to units, then a
// within-group resample of the units themselves.
func bootstrapStatistic(
	d *hstats.DesignMatrix,
	boot *resample.Bootstrapper,
	stat statistics.Statistic,
	rng *core.RNG,
	iteration int,
) (float64, error) {
	it := rng.Stream(fmt.Sprintf("ci-replicate-%d", iteration))

	variant := d
	if d.Depth() > 1 {
		v, err := boot.Transform(it, 1)
		if err != nil {
			return 0, err
		}
		variant = v
	}
	agg, err := statistics.AggregateToUnits(variant)
	if err != nil {
		return 0, err
	}

	// group units by treatment label; the sort invariant keeps them
	// contiguous
	labels := agg.Column(0)
	values := agg.Values()
	rsLabels := make([]float64, 0, len(labels))
	rsValues := make([]float64, 0, len(values))
	start := 0
	for i := 1; i <= len(labels); i++ {
		if i < len(labels) && labels[i] == labels[start] {
			continue
		}
		n := i - start
		for c := 0; c < n; c++ {
			pick := start + it.Intn(n)
			rsLabels = append(rsLabels, labels[pick])
			rsValues = append(rsValues, values[pick])
		}
		start = i
	}
	return stat.Compute(rsLabels, rsValues)
}
