package stats

import (
	"math"
	"sort"

	"hierarchstats/domain/core"
)

// Alternative selects the tail of the test.
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	Less     Alternative = "less"
	Greater  Alternative = "greater"
)

// Valid reports whether the alternative is one of the three recognized tails.
func (a Alternative) Valid() bool {
	switch a {
	case TwoSided, Less, Greater:
		return true
	}
	return false
}

// NullDistribution accumulates statistic values generated under the null
// hypothesis. It is append-only while open; Finalize sorts the values and
// freezes it. Quantile and tail queries are only valid after finalizing.
type NullDistribution struct {
	values []float64
	final  bool
}

// NewNullDistribution creates an empty, open distribution with capacity for
// the planned iteration count.
func NewNullDistribution(capacity int) *NullDistribution {
	return &NullDistribution{values: make([]float64, 0, capacity)}
}

// Append adds one null statistic value.
func (d *NullDistribution) Append(v float64) error {
	if d.final {
		return core.ErrDistributionFinal
	}
	d.values = append(d.values, v)
	return nil
}

// AppendAll adds a batch of null statistic values.
func (d *NullDistribution) AppendAll(vs []float64) error {
	if d.final {
		return core.ErrDistributionFinal
	}
	d.values = append(d.values, vs...)
	return nil
}

// Finalize sorts and freezes the distribution.
func (d *NullDistribution) Finalize() {
	if d.final {
		return
	}
	sort.Float64s(d.values)
	d.final = true
}

// Finalized reports whether the distribution is frozen.
func (d *NullDistribution) Finalized() bool {
	return d.final
}

// Len returns the number of accumulated values.
func (d *NullDistribution) Len() int {
	return len(d.values)
}

// Values returns a copy of the finalized, sorted values.
func (d *NullDistribution) Values() ([]float64, error) {
	if !d.final {
		return nil, core.ErrDistributionOpen
	}
	out := make([]float64, len(d.values))
	copy(out, d.values)
	return out, nil
}

// UniqueCount returns the number of distinct values in the finalized
// distribution.
func (d *NullDistribution) UniqueCount() (int, error) {
	if !d.final {
		return 0, core.ErrDistributionOpen
	}
	n := 0
	for i, v := range d.values {
		if i == 0 || v != d.values[i-1] {
			n++
		}
	}
	return n, nil
}

// PValue returns the proportion of null values at least as extreme as the
// observed statistic for the given alternative. Exact ties count as
// supporting the null.
func (d *NullDistribution) PValue(observed float64, alt Alternative) (float64, error) {
	if !d.final {
		return 0, core.ErrDistributionOpen
	}
	if len(d.values) == 0 {
		return 0, core.NewDegenerateInputError("empty null distribution")
	}
	extreme := 0
	for _, v := range d.values {
		switch alt {
		case Less:
			if v <= observed {
				extreme++
			}
		case Greater:
			if v >= observed {
				extreme++
			}
		default:
			if math.Abs(v) >= math.Abs(observed) {
				extreme++
			}
		}
	}
	return float64(extreme) / float64(len(d.values)), nil
}

// Quantile returns the interpolated q-th quantile of the finalized
// distribution, q in [0, 1].
func (d *NullDistribution) Quantile(q float64) (float64, error) {
	if !d.final {
		return 0, core.ErrDistributionOpen
	}
	if len(d.values) == 0 {
		return 0, core.NewDegenerateInputError("empty null distribution")
	}
	if q <= 0 {
		return d.values[0], nil
	}
	if q >= 1 {
		return d.values[len(d.values)-1], nil
	}
	pos := q * float64(len(d.values)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return d.values[lo], nil
	}
	frac := pos - float64(lo)
	return d.values[lo]*(1-frac) + d.values[hi]*frac, nil
}
