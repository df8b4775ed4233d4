// Package hypothesis orchestrates randomization tests over hierarchical
// designs: the two-sample test, the multi-sample extension with
// multiple-comparison correction, and confidence intervals by inversion of
// the bootstrap distribution.
package hypothesis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
	"hierarchstats/internal/resample"
	"hierarchstats/internal/statistics"
)

// Options configures a hypothesis test run. The zero value is usable:
// Welch statistic, two-sided, 1000 permutations x 100 bootstraps, weights
// bootstrap, seed 0.
type Options struct {
	Statistic   string
	Alternative hstats.Alternative

	Permutations int
	Bootstraps   int
	Kind         resample.Kind
	Skip         []int
	RetryBudget  int

	// Coverage, when in (0, 1), attaches a confidence interval at that
	// coverage level to the result.
	Coverage float64

	Seed       int64
	ReturnNull bool

	// Workers bounds the parallelism of null generation; defaults to 4.
	// The result is identical for any worker count under a fixed seed.
	Workers int
}

func (o Options) normalized() Options {
	if o.Alternative == "" {
		o.Alternative = hstats.TwoSided
	}
	if o.Permutations <= 0 {
		o.Permutations = 1000
	}
	if o.Bootstraps <= 0 {
		o.Bootstraps = 100
	}
	if o.Kind == "" {
		o.Kind = resample.KindWeights
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

func (o Options) engineConfig() resample.Config {
	return resample.Config{
		Permutations: o.Permutations,
		Bootstraps:   o.Bootstraps,
		Kind:         o.Kind,
		Skip:         o.Skip,
		RetryBudget:  o.RetryBudget,
	}
}

// Test runs a two-sample hierarchical randomization test. The observed
// statistic is evaluated on the design aggregated to its exchangeable
// units; the null distribution comes from permuting treatment labels over
// fresh nested-bootstrap replicates. Deterministic under a fixed seed.
func Test(ctx context.Context, d *hstats.DesignMatrix, opts Options) (*hstats.TestResult, error) {
	opts = opts.normalized()
	if !opts.Alternative.Valid() {
		return nil, core.NewDegenerateInputError(fmt.Sprintf("unknown alternative %q", opts.Alternative))
	}
	stat, err := statistics.ByName(opts.Statistic)
	if err != nil {
		return nil, err
	}

	groups := d.TreatmentGroups()
	if len(groups) != 2 {
		return nil, core.NewDegenerateInputError(
			fmt.Sprintf("two-sample test needs exactly 2 treatment groups, got %d", len(groups)))
	}

	agg, err := statistics.AggregateToUnits(d)
	if err != nil {
		return nil, err
	}
	if err := checkExchangeability(agg); err != nil {
		return nil, err
	}

	observed, err := stat.Compute(agg.Column(0), agg.Values())
	if err != nil {
		return nil, err
	}

	rng := core.NewRNG(opts.Seed)
	probe, err := resample.NewEngine(d, opts.engineConfig(), rng)
	if err != nil {
		return nil, err
	}
	replicates := probe.Bootstraps()

	null, converged, err := generateNull(ctx, d, opts, stat, rng, replicates, probe.Len()/replicates)
	if err != nil {
		return nil, err
	}
	null.Finalize()

	p, err := null.PValue(observed, opts.Alternative)
	if err != nil {
		return nil, err
	}

	result := &hstats.TestResult{
		ID:           uuid.New(),
		ParametricP:  parametricReference(stat, agg, observed),
		Statistic:    stat.Name(),
		Alternative:  opts.Alternative,
		GroupA:       groups[0],
		GroupB:       groups[1],
		Observed:     observed,
		PValue:       p,
		Permutations: probe.Len() / replicates,
		Bootstraps:   replicates,
		Exact:        probe.Exact(),
		Converged:    converged,
		Seed:         opts.Seed,
		CreatedAt:    time.Now().UTC(),
	}
	if !converged {
		result.Notice = fmt.Sprintf(
			"requested %d unique permutations per replicate but the design admits about %.0f distinct labelings; sampling fell back to replacement",
			opts.Permutations, probe.Total())
	}
	if opts.ReturnNull {
		result.Null = null
	}
	if opts.Coverage > 0 {
		iv, err := ConfidenceInterval(ctx, d, opts.Coverage, opts)
		if err != nil {
			return nil, err
		}
		result.Interval = &iv
	}
	return result, nil
}

// generateNull fans the bootstrap replicates out over workers. Each
// replicate runs its own single-replicate engine on its own derived RNG
// stream, so the merged distribution does not depend on scheduling.
func generateNull(
	ctx context.Context,
	d *hstats.DesignMatrix,
	opts Options,
	stat statistics.Statistic,
	rng *core.RNG,
	replicates, perReplicate int,
) (*hstats.NullDistribution, bool, error) {
	blocks := make([][]float64, replicates)
	flags := make([]bool, replicates)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for b := 0; b < replicates; b++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := opts.engineConfig()
			cfg.Bootstraps = 1
			cfg.ReplicateOffset = b
			eng, err := resample.NewEngine(d, cfg, rng)
			if err != nil {
				return err
			}
			values := make([]float64, 0, perReplicate)
			for {
				variant, ok, err := eng.Next()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				v, err := stat.Compute(variant.Column(0), variant.Values())
				if err != nil {
					if !core.IsDegenerateInput(err) {
						return err
					}
					// degenerate resamples count as maximally extreme,
					// which can only inflate the p-value
					v = conservativeExtreme(opts.Alternative)
				}
				values = append(values, v)
			}
			blocks[b] = values
			flags[b] = eng.Converged()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	total := 0
	for _, block := range blocks {
		total += len(block)
	}
	null := hstats.NewNullDistribution(total)
	converged := true
	for b, block := range blocks {
		if err := null.AppendAll(block); err != nil {
			return nil, false, err
		}
		converged = converged && flags[b]
	}
	return null, converged, nil
}

// checkExchangeability enforces the minimum unit counts for a valid
// permutation null: at least 2 exchangeable units per treatment group.
func checkExchangeability(agg *hstats.DesignMatrix) error {
	counts := map[float64]int{}
	for i := 0; i < agg.Len(); i++ {
		counts[agg.Label(i, 0)]++
	}
	for label, n := range counts {
		if n < 2 {
			return core.NewInsufficientDataError(
				fmt.Sprintf("%s=%g", agg.Hierarchy().Level(0), label), n, 2)
		}
	}
	return nil
}

// parametricReference computes the two-tailed Student's t p-value for the
// Welch statistic as a sanity reference next to the randomization p.
// Nil for other statistics or when the degrees of freedom are degenerate.
func parametricReference(stat statistics.Statistic, agg *hstats.DesignMatrix, observed float64) *float64 {
	if stat.Name() != statistics.StatWelch {
		return nil
	}
	a, b, err := statistics.SplitByLabel(agg.Column(0), agg.Values())
	if err != nil {
		return nil
	}
	df, err := statistics.WelchDF(a, b)
	if err != nil {
		return nil
	}
	p := statistics.WelchPValue(observed, df)
	return &p
}

func conservativeExtreme(alt hstats.Alternative) float64 {
	if alt == hstats.Less {
		return math.Inf(-1)
	}
	return math.Inf(1)
}
