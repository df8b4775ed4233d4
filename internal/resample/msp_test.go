package resample

import "testing"

func TestMultisetCount(t *testing.T) {
	tests := []struct {
		name   string
		labels []float64
		want   float64
	}{
		{"balanced two groups", []float64{1, 1, 1, 2, 2, 2}, 20},
		{"all distinct", []float64{1, 2, 3, 4}, 24},
		{"all equal", []float64{7, 7, 7}, 1},
		{"unbalanced", []float64{1, 1, 2}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := multisetCount(tt.labels); got != tt.want {
				t.Errorf("multisetCount(%v) = %g, want %g", tt.labels, got, tt.want)
			}
		})
	}
}

func TestMultisetPermutations(t *testing.T) {
	perms := multisetPermutations([]float64{1, 1, 2})
	if len(perms) != 3 {
		t.Fatalf("got %d permutations, want 3", len(perms))
	}

	// lexicographic order over the sorted distinct labels
	want := [][]float64{{1, 1, 2}, {1, 2, 1}, {2, 1, 1}}
	for i, w := range want {
		for j := range w {
			if perms[i][j] != w[j] {
				t.Fatalf("permutation %d = %v, want %v", i, perms[i], w)
			}
		}
	}
}

func TestMultisetPermutationsMatchCount(t *testing.T) {
	labels := []float64{1, 1, 2, 2, 3}
	perms := multisetPermutations(labels)
	if want := multisetCount(labels); float64(len(perms)) != want {
		t.Errorf("enumerated %d arrangements, count says %g", len(perms), want)
	}
}
