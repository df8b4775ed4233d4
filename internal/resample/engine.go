package resample

import (
	"fmt"
	"math/rand"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
	"hierarchstats/internal/statistics"
)

// exactCap bounds forced exact enumeration; beyond this the permutation
// space is too large to materialize.
const exactCap = 200000

// Config parameterizes the randomization engine.
type Config struct {
	// Permutations is the number of treatment relabelings per bootstrap
	// replicate. When the design admits no more than this many distinct
	// labelings the engine switches to exact enumeration.
	Permutations int
	// Bootstraps is the number of nested bootstrap replicates of the
	// levels below the treatment level. Forced to 1 on one-level designs.
	Bootstraps int
	// Kind selects the bootstrap algorithm; default KindWeights.
	Kind Kind
	// Skip lists label levels excluded from resampling.
	Skip []int
	// Exact forces exact enumeration even when Permutations is smaller
	// than the permutation space.
	Exact bool
	// RetryBudget bounds the search for unique random permutations.
	RetryBudget int
	// ReplicateOffset shifts the replicate stream index, letting callers
	// split the bootstrap replicates across engines without changing the
	// draws any replicate sees.
	ReplicateOffset int
}

func (c Config) normalized(depth int) Config {
	if c.Permutations <= 0 {
		c.Permutations = 1000
	}
	if c.Bootstraps <= 0 {
		c.Bootstraps = 1
	}
	if depth < 2 {
		c.Bootstraps = 1
	}
	if c.Kind == "" {
		c.Kind = KindWeights
	}
	return c
}

// Engine produces a finite sequence of randomized variants of a design:
// each variant is the design aggregated to its exchangeable units with the
// treatment labels permuted, on top of a fresh nested bootstrap of the
// lower levels. The sequence is not restartable; every call to Next is an
// independent draw.
type Engine struct {
	d    *hstats.DesignMatrix
	cfg  Config
	rng  *core.RNG
	boot *Bootstrapper

	exact bool
	total float64 // distinct labelings of the unbootstrapped design

	bootIdx   int
	repRNG    *rand.Rand
	agg       *hstats.DesignMatrix
	perm      *Permuter
	sampler   *UniqueSampler
	exactCols [][]float64
	colIdx    int
	permsCur  int

	converged bool
	done      bool
}

// NewEngine validates the configuration and prepares the engine.
func NewEngine(d *hstats.DesignMatrix, cfg Config, rng *core.RNG) (*Engine, error) {
	cfg = cfg.normalized(d.Depth())
	if !cfg.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidKind, cfg.Kind)
	}

	boot, err := NewBootstrapper(cfg.Kind, cfg.Skip...)
	if err != nil {
		return nil, err
	}
	if err := boot.Fit(d); err != nil {
		return nil, err
	}

	agg0, err := statistics.AggregateToUnits(d)
	if err != nil {
		return nil, err
	}
	perm0 := &Permuter{}
	if err := perm0.Fit(agg0, 0); err != nil {
		return nil, err
	}

	total := perm0.Total()
	exact := cfg.Exact || total <= float64(cfg.Permutations)
	if exact && total > exactCap {
		return nil, core.NewDegenerateInputError(
			fmt.Sprintf("exact enumeration of %.0f labelings exceeds the cap of %d", total, exactCap))
	}

	return &Engine{
		d:         d,
		cfg:       cfg,
		rng:       rng,
		boot:      boot,
		exact:     exact,
		total:     total,
		converged: true,
	}, nil
}

// Exact reports whether the engine enumerates the permutation space
// instead of sampling it.
func (e *Engine) Exact() bool {
	return e.exact
}

// Total returns the number of distinct treatment labelings of the
// unbootstrapped design.
func (e *Engine) Total() float64 {
	return e.total
}

// Len returns the planned number of variants.
func (e *Engine) Len() int {
	per := e.cfg.Permutations
	if e.exact {
		per = int(e.total)
	}
	return per * e.cfg.Bootstraps
}

// Bootstraps returns the number of bootstrap replicates the engine runs.
func (e *Engine) Bootstraps() int {
	return e.cfg.Bootstraps
}

// Next returns the next randomized variant, or ok == false once the
// iteration budget is exhausted.
func (e *Engine) Next() (variant *hstats.DesignMatrix, ok bool, err error) {
	for {
		if e.done {
			return nil, false, nil
		}
		if e.agg == nil {
			if err := e.setupReplicate(); err != nil {
				e.done = true
				return nil, false, err
			}
		}
		if e.colIdx < e.permsCur {
			var col []float64
			if e.exact {
				col = e.exactCols[e.colIdx]
			} else {
				col = e.sampler.Draw(e.repRNG)
			}
			e.colIdx++
			return e.perm.Apply(e.agg, col), true, nil
		}
		e.finishReplicate()
	}
}

// Converged reports whether every requested random permutation was unique.
// A false value is advisory, not an error: the produced distribution is
// still valid, just drawn with replacement past the retry budget.
func (e *Engine) Converged() bool {
	return e.converged
}

// Notice describes the convergence degradation, empty when converged.
func (e *Engine) Notice() string {
	if e.converged {
		return ""
	}
	return fmt.Sprintf(
		"requested %d unique permutations per replicate but the design admits about %.0f distinct labelings; sampling fell back to replacement",
		e.cfg.Permutations, e.total)
}

// setupReplicate derives the deterministic stream for the replicate and
// draws its bootstrap. Bootstrap weights and permutation draws within a
// replicate share one stream, so a replicate's output depends only on the
// seed and its index.
func (e *Engine) setupReplicate() error {
	idx := e.cfg.ReplicateOffset + e.bootIdx
	rng := e.rng.Stream(fmt.Sprintf("replicate-%d", idx))
	e.repRNG = rng
	variant := e.d
	if e.d.Depth() > 1 {
		v, err := e.boot.Transform(rng, 1)
		if err != nil {
			return err
		}
		variant = v
	}
	agg, err := statistics.AggregateToUnits(variant)
	if err != nil {
		return err
	}
	perm := &Permuter{}
	if err := perm.Fit(agg, 0); err != nil {
		return err
	}

	e.agg = agg
	e.perm = perm
	e.colIdx = 0
	if e.exact {
		cols, err := perm.Exact()
		if err != nil {
			return err
		}
		e.exactCols = cols
		e.permsCur = len(cols)
		e.sampler = nil
	} else {
		e.sampler = NewUniqueSampler(perm, e.cfg.RetryBudget)
		e.permsCur = e.cfg.Permutations
	}
	return nil
}

func (e *Engine) finishReplicate() {
	if e.sampler != nil && !e.sampler.Converged() {
		e.converged = false
	}
	e.agg = nil
	e.bootIdx++
	if e.bootIdx >= e.cfg.Bootstraps {
		e.done = true
	}
}
