package statistics

import (
	"math"
	"testing"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
)

func threeLevel(t *testing.T) *hstats.DesignMatrix {
	t.Helper()
	d, err := hstats.NewDesignMatrix(
		hstats.Hierarchy{Levels: []string{"treatment", "well", "measurement"}},
		[][]float64{
			{1, 1, 1}, {1, 1, 2},
			{1, 2, 1}, {1, 2, 2},
			{2, 1, 1}, {2, 1, 2},
			{2, 2, 1}, {2, 2, 2},
		},
		[]float64{1, 3, 5, 7, 10, 12, 20, 22},
	)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestCollapse(t *testing.T) {
	d := threeLevel(t)

	c, err := Collapse(d)
	if err != nil {
		t.Fatalf("Collapse: %v", err)
	}
	if c.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", c.Depth())
	}
	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}
	want := []float64{2, 6, 11, 21}
	for i, w := range want {
		if math.Abs(c.Value(i)-w) > 1e-12 {
			t.Errorf("collapsed value %d = %g, want %g", i, c.Value(i), w)
		}
	}
}

func TestCollapseSingleLevel(t *testing.T) {
	d, err := hstats.NewDesignMatrix(
		hstats.Hierarchy{Levels: []string{"treatment"}},
		[][]float64{{1}, {2}},
		[]float64{1, 2},
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Collapse(d); !core.IsDegenerateInput(err) {
		t.Errorf("Collapse on single level: got %v, want degenerate input error", err)
	}
}

func TestAggregateToUnits(t *testing.T) {
	d := threeLevel(t)

	agg, err := AggregateToUnits(d)
	if err != nil {
		t.Fatalf("AggregateToUnits: %v", err)
	}
	if agg.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", agg.Depth())
	}
	if agg.Len() != 4 {
		t.Fatalf("Len() = %d, want one row per unit", agg.Len())
	}
	want := []float64{2, 6, 11, 21}
	for i, w := range want {
		if math.Abs(agg.Value(i)-w) > 1e-12 {
			t.Errorf("unit value %d = %g, want %g", i, agg.Value(i), w)
		}
	}
}

func TestAggregateToUnitsMergesReplicates(t *testing.T) {
	// depth 2 with replicate rows per unit path
	d, err := hstats.NewDesignMatrix(
		hstats.Hierarchy{Levels: []string{"treatment", "well"}},
		[][]float64{{1, 1}, {1, 1}, {1, 2}, {2, 1}, {2, 1}, {2, 2}},
		[]float64{1, 3, 5, 10, 12, 20},
	)
	if err != nil {
		t.Fatal(err)
	}

	agg, err := AggregateToUnits(d)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Len() != 4 {
		t.Fatalf("Len() = %d, want 4 units", agg.Len())
	}
	want := []float64{2, 5, 11, 20}
	for i, w := range want {
		if math.Abs(agg.Value(i)-w) > 1e-12 {
			t.Errorf("unit value %d = %g, want %g", i, agg.Value(i), w)
		}
	}
}

func TestAggregateToUnitsSingleLevelPassthrough(t *testing.T) {
	d, err := hstats.NewDesignMatrix(
		hstats.Hierarchy{Levels: []string{"treatment"}},
		[][]float64{{1}, {1}, {2}, {2}},
		[]float64{1, 2, 3, 4},
	)
	if err != nil {
		t.Fatal(err)
	}

	agg, err := AggregateToUnits(d)
	if err != nil {
		t.Fatal(err)
	}
	if agg != d {
		t.Error("single-level design should pass through unchanged")
	}
}
