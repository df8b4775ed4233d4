package statistics

import (
	"math"
	"testing"

	"hierarchstats/domain/core"
)

func TestWelchKnownValue(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}

	got, err := Welch(a, b)
	if err != nil {
		t.Fatalf("Welch: %v", err)
	}
	// means 2 and 5, both variances 1: (2-5)/sqrt(1/3+1/3)
	want := -3 / math.Sqrt(2.0/3.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Welch = %v, want %v", got, want)
	}
}

func TestWelchAntisymmetric(t *testing.T) {
	a := []float64{1.2, 3.4, 2.2, 5.1}
	b := []float64{7.0, 6.5, 8.2}

	ab, err := Welch(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Welch(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ab+ba) > 1e-12 {
		t.Errorf("Welch(a,b) = %v and Welch(b,a) = %v are not antisymmetric", ab, ba)
	}
}

func TestWelchDegenerate(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
	}{
		{"sample too small", []float64{1}, []float64{2, 3}},
		{"zero variance", []float64{2, 2, 2}, []float64{1, 3, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Welch(tt.a, tt.b); !core.IsDegenerateInput(err) {
				t.Errorf("got %v, want degenerate input error", err)
			}
		})
	}
}

func TestWelchDF(t *testing.T) {
	// equal variances and sizes reduce to the pooled df
	a := []float64{1, 2, 3, 4}
	b := []float64{11, 12, 13, 14}
	df, err := WelchDF(a, b)
	if err != nil {
		t.Fatalf("WelchDF: %v", err)
	}
	if math.Abs(df-6) > 1e-9 {
		t.Errorf("WelchDF = %v, want 6", df)
	}
}

func TestWelchPValue(t *testing.T) {
	if p := WelchPValue(0, 10); math.Abs(p-1) > 1e-12 {
		t.Errorf("p at t=0 should be 1, got %v", p)
	}
	p := WelchPValue(3.5, 10)
	if p <= 0 || p >= 0.05 {
		t.Errorf("p at t=3.5, df=10 should be small and positive, got %v", p)
	}
	if p2 := WelchPValue(-3.5, 10); math.Abs(p-p2) > 1e-12 {
		t.Errorf("two-tailed p should be symmetric in t: %v vs %v", p, p2)
	}
}

func TestWelchStatisticCompute(t *testing.T) {
	labels := []float64{2, 2, 2, 1, 1, 1}
	values := []float64{4, 5, 6, 1, 2, 3}

	got, err := WelchStatistic{}.Compute(labels, values)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// lower label first: group 1 minus group 2
	want := -3 / math.Sqrt(2.0/3.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Compute = %v, want %v", got, want)
	}
}
