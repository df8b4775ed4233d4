package resample

import (
	"sort"
	"testing"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
)

func drain(t *testing.T, e *Engine) []*hstats.DesignMatrix {
	t.Helper()
	var out []*hstats.DesignMatrix
	for {
		v, ok, err := e.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestEngineExactEnumeration(t *testing.T) {
	d := unitDesign(t) // 3+3 units, 20 distinct labelings

	e, err := NewEngine(d, Config{Permutations: 1000}, core.NewRNG(1))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if !e.Exact() {
		t.Fatal("20 labelings under a budget of 1000 should enumerate exactly")
	}
	if e.Total() != 20 {
		t.Errorf("Total() = %g, want 20", e.Total())
	}
	if e.Len() != 20 {
		t.Errorf("Len() = %d, want 20", e.Len())
	}

	variants := drain(t, e)
	if len(variants) != 20 {
		t.Fatalf("drained %d variants, want 20", len(variants))
	}
	for _, v := range variants {
		col := v.Column(0)
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)
		want := []float64{1, 1, 1, 2, 2, 2}
		for i := range want {
			if sorted[i] != want[i] {
				t.Fatalf("variant changed the treatment multiset: %v", col)
			}
		}
	}
}

func TestEngineRandomSampling(t *testing.T) {
	d := unitDesign(t)

	e, err := NewEngine(d, Config{Permutations: 10}, core.NewRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	if e.Exact() {
		t.Fatal("a budget below the space size should sample randomly")
	}
	variants := drain(t, e)
	if len(variants) != 10 {
		t.Fatalf("drained %d variants, want 10", len(variants))
	}
	if !e.Converged() {
		t.Errorf("10 unique draws from 20 arrangements should converge: %s", e.Notice())
	}
}

func TestEngineNestedBootstrapReplicates(t *testing.T) {
	d, err := hstats.NewDesignMatrix(
		hstats.Hierarchy{Levels: []string{"treatment", "well", "measurement"}},
		[][]float64{
			{1, 1, 1}, {1, 1, 2}, {1, 2, 1}, {1, 2, 2}, {1, 3, 1}, {1, 3, 2},
			{2, 1, 1}, {2, 1, 2}, {2, 2, 1}, {2, 2, 2}, {2, 3, 1}, {2, 3, 2},
		},
		[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	)
	if err != nil {
		t.Fatal(err)
	}

	e, err := NewEngine(d, Config{Permutations: 5, Bootstraps: 3}, core.NewRNG(2))
	if err != nil {
		t.Fatal(err)
	}
	if e.Bootstraps() != 3 {
		t.Errorf("Bootstraps() = %d, want 3", e.Bootstraps())
	}
	variants := drain(t, e)
	if len(variants) != 15 {
		t.Fatalf("drained %d variants, want 5 x 3", len(variants))
	}
	for _, v := range variants {
		if v.Depth() != 2 {
			t.Fatalf("variant depth %d, want units aggregated to depth 2", v.Depth())
		}
		if v.Len() != 6 {
			t.Fatalf("variant has %d rows, want one per unit", v.Len())
		}
	}
}

func TestEngineSingleLevelForcesOneReplicate(t *testing.T) {
	d, err := hstats.NewDesignMatrix(
		hstats.Hierarchy{Levels: []string{"treatment"}},
		[][]float64{{1}, {1}, {1}, {2}, {2}, {2}},
		[]float64{1, 2, 3, 4, 5, 6},
	)
	if err != nil {
		t.Fatal(err)
	}

	e, err := NewEngine(d, Config{Permutations: 1000, Bootstraps: 50}, core.NewRNG(0))
	if err != nil {
		t.Fatal(err)
	}
	if e.Bootstraps() != 1 {
		t.Errorf("Bootstraps() = %d, a one-level design has nothing to bootstrap", e.Bootstraps())
	}
	if got := len(drain(t, e)); got != 20 {
		t.Errorf("drained %d variants, want the 20 exact labelings once", got)
	}
}

func TestEngineDeterministicAcrossOffsets(t *testing.T) {
	// replicate i of a 2-replicate engine must match a 1-replicate engine
	// with offset i, which is how the orchestrator parallelizes
	d, err := hstats.NewDesignMatrix(
		hstats.Hierarchy{Levels: []string{"treatment", "well"}},
		[][]float64{
			{1, 1}, {1, 2}, {1, 3}, {1, 4},
			{2, 1}, {2, 2}, {2, 3}, {2, 4},
		},
		[]float64{1, 2, 3, 4, 5, 6, 7, 8},
	)
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Permutations: 6, Bootstraps: 2}

	whole, err := NewEngine(d, cfg, core.NewRNG(9))
	if err != nil {
		t.Fatal(err)
	}
	all := drain(t, whole)

	var split []*hstats.DesignMatrix
	for rep := 0; rep < 2; rep++ {
		part := cfg
		part.Bootstraps = 1
		part.ReplicateOffset = rep
		e, err := NewEngine(d, part, core.NewRNG(9))
		if err != nil {
			t.Fatal(err)
		}
		split = append(split, drain(t, e)...)
	}

	if len(all) != len(split) {
		t.Fatalf("whole run drained %d, split runs drained %d", len(all), len(split))
	}
	for i := range all {
		for r := 0; r < all[i].Len(); r++ {
			if all[i].Label(r, 0) != split[i].Label(r, 0) || all[i].Value(r) != split[i].Value(r) {
				t.Fatalf("variant %d differs between whole and split runs", i)
			}
		}
	}
}

func TestEngineInvalidKind(t *testing.T) {
	d := unitDesign(t)
	if _, err := NewEngine(d, Config{Kind: "jackknife"}, core.NewRNG(0)); err == nil {
		t.Error("unknown kind should fail construction")
	}
}

func TestEngineExactCap(t *testing.T) {
	// 12+12 units admit C(24,12) labelings, far past the enumeration cap
	labels := make([][]float64, 24)
	values := make([]float64, 24)
	for i := range labels {
		g := 1.0
		if i >= 12 {
			g = 2.0
		}
		labels[i] = []float64{g}
		values[i] = float64(i)
	}
	d, err := hstats.NewDesignMatrix(hstats.Hierarchy{Levels: []string{"treatment"}}, labels, values)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewEngine(d, Config{Permutations: 100, Exact: true}, core.NewRNG(0)); !core.IsDegenerateInput(err) {
		t.Errorf("forced exact past the cap: got %v, want degenerate input error", err)
	}
}
