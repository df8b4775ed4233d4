package resample

import (
	"testing"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
)

func TestUniqueSamplerRejectsDuplicates(t *testing.T) {
	d := unitDesign(t)
	p := &Permuter{}
	if err := p.Fit(d, 0); err != nil {
		t.Fatal(err)
	}

	s := NewUniqueSampler(p, 0)
	rng := core.NewRNG(5).Stream("test")

	seen := map[string]bool{}
	for i := 0; i < 15; i++ { // 15 of the 20 possible arrangements
		col := s.Draw(rng)
		key := columnKey(col)
		if seen[key] {
			t.Fatalf("draw %d repeated an arrangement before exhaustion", i)
		}
		seen[key] = true
	}
	if !s.Converged() {
		t.Error("sampler should still be converged within the space size")
	}
}

func TestUniqueSamplerFallback(t *testing.T) {
	// two units admit only 2 arrangements; the third draw must exhaust the
	// retry budget and degrade to sampling with replacement
	d, err := hstats.NewDesignMatrix(
		hstats.Hierarchy{Levels: []string{"treatment"}},
		[][]float64{{1}, {2}},
		[]float64{1, 2},
	)
	if err != nil {
		t.Fatal(err)
	}
	p := &Permuter{}
	if err := p.Fit(d, 0); err != nil {
		t.Fatal(err)
	}

	s := NewUniqueSampler(p, 10)
	rng := core.NewRNG(5).Stream("test")
	for i := 0; i < 5; i++ {
		if col := s.Draw(rng); len(col) != 2 {
			t.Fatalf("draw %d returned %d labels", i, len(col))
		}
	}
	if s.Converged() {
		t.Error("sampler should report fallback after exhausting a 2-arrangement space")
	}
}
