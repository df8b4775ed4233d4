package resample

import (
	"encoding/binary"
	"math"
	"math/rand"
)

// DefaultRetryBudget bounds how many redraws the sampler spends looking
// for an unseen permutation before degrading to sampling with replacement.
const DefaultRetryBudget = 100

// UniqueSampler draws permuted columns from a fitted Permuter, rejecting
// duplicates until its retry budget runs out. After exhaustion it degrades
// gracefully: duplicates are accepted and the sampler reports itself
// unconverged, which surfaces to the caller as a convergence advisory.
type UniqueSampler struct {
	perm     *Permuter
	budget   int
	seen     map[string]struct{}
	fallback bool
}

// NewUniqueSampler wraps a fitted permuter. retryBudget <= 0 selects
// DefaultRetryBudget.
func NewUniqueSampler(perm *Permuter, retryBudget int) *UniqueSampler {
	if retryBudget <= 0 {
		retryBudget = DefaultRetryBudget
	}
	return &UniqueSampler{
		perm:   perm,
		budget: retryBudget,
		seen:   make(map[string]struct{}),
	}
}

// Draw returns the next permuted column. Each call is a fresh draw; the
// sequence is not restartable.
func (s *UniqueSampler) Draw(rng *rand.Rand) []float64 {
	col := s.perm.Column(rng)
	if s.fallback {
		return col
	}
	for try := 0; try < s.budget; try++ {
		key := columnKey(col)
		if _, dup := s.seen[key]; !dup {
			s.seen[key] = struct{}{}
			return col
		}
		col = s.perm.Column(rng)
	}
	s.fallback = true
	s.seen = nil
	return col
}

// Converged reports whether every draw so far was unique.
func (s *UniqueSampler) Converged() bool {
	return !s.fallback
}

func columnKey(col []float64) string {
	buf := make([]byte, 8*len(col))
	for i, v := range col {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return string(buf)
}
