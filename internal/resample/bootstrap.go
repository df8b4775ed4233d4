package resample

import (
	"fmt"
	"math/rand"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
)

// Kind selects the bootstrap algorithm.
type Kind string

const (
	// KindWeights draws integer multinomial weights per cluster and
	// multiplies the observations by them.
	KindWeights Kind = "weights"
	// KindBayesian draws real Dirichlet weights per cluster.
	KindBayesian Kind = "bayesian"
	// KindIndexes resamples row indexes; equivalent to KindWeights after
	// aggregation, but produces a design of (possibly) different length.
	KindIndexes Kind = "indexes"
)

// Valid reports whether the kind is one of the three algorithms.
func (k Kind) Valid() bool {
	switch k {
	case KindWeights, KindBayesian, KindIndexes:
		return true
	}
	return false
}

// Bootstrapper performs a nested bootstrap on a fitted design. Weights are
// drawn cluster by cluster from the start level down, so resampling a
// coarse level carries through to everything beneath it. Levels listed in
// skip inherit their parent weights unchanged.
type Bootstrapper struct {
	kind Kind
	skip map[int]bool

	d      *hstats.DesignMatrix
	counts [][]int // counts[level] = children per node at that level
}

// NewBootstrapper creates a bootstrapper. Skip levels are label-column
// indices that were sampled without replacement from their parent level.
func NewBootstrapper(kind Kind, skip ...int) (*Bootstrapper, error) {
	if kind == "" {
		kind = KindWeights
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
	}
	s := make(map[int]bool, len(skip))
	for _, lvl := range skip {
		s[lvl] = true
	}
	return &Bootstrapper{kind: kind, skip: s}, nil
}

// Kind returns the configured algorithm.
func (b *Bootstrapper) Kind() Kind {
	return b.kind
}

// Fit precomputes the cluster structure of the target design.
func (b *Bootstrapper) Fit(d *hstats.DesignMatrix) error {
	for lvl := range b.skip {
		if lvl < 0 || lvl >= d.Depth() {
			return core.NewDegenerateInputError(fmt.Sprintf("skip level %d out of bounds", lvl))
		}
	}
	b.d = d
	b.counts = make([][]int, d.Depth())
	for lvl := 0; lvl < d.Depth(); lvl++ {
		b.counts[lvl] = childCounts(d, lvl)
	}
	return nil
}

// Transform draws one bootstrapped variant, resampling levels start and
// finer. The fitted design is never mutated. Transform is safe for
// concurrent use as long as each caller brings its own rng.
func (b *Bootstrapper) Transform(rng *rand.Rand, start int) (*hstats.DesignMatrix, error) {
	if b.d == nil {
		return nil, core.NewDegenerateInputError("bootstrapper is not fitted")
	}
	if start >= b.d.Depth() {
		return b.d, nil
	}
	if start < 0 {
		start = 0
	}

	weights := b.rowWeights(rng, start)

	switch b.kind {
	case KindBayesian, KindWeights:
		values := b.d.Values()
		for i := range values {
			values[i] *= weights[i]
		}
		return b.d.WithValues(values), nil
	default: // KindIndexes
		var labels [][]float64
		var values []float64
		for i, w := range weights {
			for rep := 0; rep < int(w); rep++ {
				labels = append(labels, b.d.Path(i))
				values = append(values, b.d.Value(i))
			}
		}
		return hstats.RebuildSorted(b.d.Hierarchy(), labels, values)
	}
}

// rowWeights walks the hierarchy from the start level down, distributing
// each parent's weight over its children, and returns one weight per row.
// The nodes at the start level are the first to be resampled, within their
// parents one level up; rows sharing a full label path count as children
// of the finest node.
func (b *Bootstrapper) rowWeights(rng *rand.Rand, start int) []float64 {
	depth := b.d.Depth()

	weights := []float64{1}
	if start > 0 {
		weights = make([]float64, len(b.counts[start-1]))
		for i := range weights {
			weights[i] = 1
		}
	}

	for lvl := start; lvl <= depth; lvl++ {
		toDo := []int{len(b.counts[0])}
		if lvl > 0 {
			toDo = b.counts[lvl-1]
		}
		total := 0
		for _, v := range toDo {
			total += v
		}
		next := make([]float64, 0, total)

		if lvl < depth && b.skip[lvl] {
			for idx, v := range toDo {
				for c := 0; c < v; c++ {
					next = append(next, weights[idx])
				}
			}
		} else {
			for idx, v := range toDo {
				next = append(next, b.drawWeights(rng, weights[idx], v)...)
			}
		}
		weights = next
	}
	return weights
}

// drawWeights splits a parent weight over v children. Multinomial with
// v*w trials for the integer kinds, Dirichlet(1,...,1) scaled by v*w for
// the bayesian kind.
func (b *Bootstrapper) drawWeights(rng *rand.Rand, w float64, v int) []float64 {
	out := make([]float64, v)
	if v == 1 {
		out[0] = w
		return out
	}
	if b.kind == KindBayesian {
		sum := 0.0
		for i := range out {
			out[i] = rng.ExpFloat64()
			sum += out[i]
		}
		for i := range out {
			out[i] = out[i] / sum * w * float64(v)
		}
		return out
	}
	trials := int(w) * v
	for t := 0; t < trials; t++ {
		out[rng.Intn(v)]++
	}
	return out
}
