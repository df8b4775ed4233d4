package statistics

import (
	"errors"
	"testing"

	"hierarchstats/domain/core"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name     string
		arg      string
		wantName string
		wantErr  error
	}{
		{"default is welch", "", StatWelch, nil},
		{"welch", StatWelch, StatWelch, nil},
		{"covariance", StatStudentizedCovariance, StatStudentizedCovariance, nil},
		{"unknown", "median", "", core.ErrInvalidStatistic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stat, err := ByName(tt.arg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
			if err == nil && stat.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", stat.Name(), tt.wantName)
			}
		})
	}
}

func TestSplitByLabel(t *testing.T) {
	a, b, err := SplitByLabel(
		[]float64{5, 5, 2, 2, 5},
		[]float64{50, 51, 20, 21, 52},
	)
	if err != nil {
		t.Fatalf("SplitByLabel: %v", err)
	}
	// lower label comes first regardless of row order
	if len(a) != 2 || a[0] != 20 || a[1] != 21 {
		t.Errorf("a = %v, want values of label 2", a)
	}
	if len(b) != 3 || b[0] != 50 || b[2] != 52 {
		t.Errorf("b = %v, want values of label 5", b)
	}
}

func TestSplitByLabelErrors(t *testing.T) {
	tests := []struct {
		name   string
		labels []float64
		values []float64
	}{
		{"one label", []float64{1, 1, 1}, []float64{1, 2, 3}},
		{"three labels", []float64{1, 2, 3}, []float64{1, 2, 3}},
		{"count mismatch", []float64{1, 2}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := SplitByLabel(tt.labels, tt.values); !core.IsDegenerateInput(err) {
				t.Errorf("got %v, want degenerate input error", err)
			}
		})
	}
}
