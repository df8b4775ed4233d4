package stats

import (
	"math"
	"sort"
	"strconv"

	"hierarchstats/domain/core"
)

// Hierarchy names the grouping levels of a design, coarsest first.
// Level 0 is the treatment level: the level whose labels get permuted
// under the null hypothesis.
type Hierarchy struct {
	Levels []string `json:"levels"`
}

// Depth returns the number of grouping levels.
func (h Hierarchy) Depth() int {
	return len(h.Levels)
}

// Level returns the name of a level, or its index when unnamed.
func (h Hierarchy) Level(i int) string {
	if i >= 0 && i < len(h.Levels) && h.Levels[i] != "" {
		return h.Levels[i]
	}
	return "level " + strconv.Itoa(i)
}

// DesignMatrix is a read-only table of observations. Each row carries a
// complete label path through the hierarchy (coarsest level first) and one
// numeric observation. Rows must be lexicographically sorted by label path;
// this is validated once at construction and relied on everywhere else.
type DesignMatrix struct {
	hierarchy Hierarchy
	labels    [][]float64
	values    []float64
}

// NewDesignMatrix validates and builds a design matrix. labels is one label
// path per observation; values holds the corresponding observations.
func NewDesignMatrix(h Hierarchy, labels [][]float64, values []float64) (*DesignMatrix, error) {
	if h.Depth() == 0 {
		return nil, core.NewDegenerateInputError("hierarchy has no levels")
	}
	if len(labels) != len(values) {
		return nil, core.NewDegenerateInputError("label and value counts differ")
	}
	if len(values) == 0 {
		return nil, core.NewDegenerateInputError("design matrix has no rows")
	}
	for i, path := range labels {
		if len(path) != h.Depth() {
			return nil, core.ErrIncompletePath
		}
		for _, l := range path {
			if math.IsNaN(l) || math.IsInf(l, 0) {
				return nil, core.ErrIncompletePath
			}
		}
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return nil, core.NewDegenerateInputError("non-finite observation value")
		}
		if i > 0 && comparePaths(labels[i-1], path) > 0 {
			return nil, core.ErrUnsortedDesign
		}
	}
	return &DesignMatrix{hierarchy: h, labels: labels, values: values}, nil
}

// Hierarchy returns the level specification.
func (d *DesignMatrix) Hierarchy() Hierarchy {
	return d.hierarchy
}

// Len returns the observation count.
func (d *DesignMatrix) Len() int {
	return len(d.values)
}

// Depth returns the number of hierarchy levels.
func (d *DesignMatrix) Depth() int {
	return d.hierarchy.Depth()
}

// Label returns the level-th label of row i.
func (d *DesignMatrix) Label(i, level int) float64 {
	return d.labels[i][level]
}

// Path returns a copy of row i's full label path.
func (d *DesignMatrix) Path(i int) []float64 {
	out := make([]float64, len(d.labels[i]))
	copy(out, d.labels[i])
	return out
}

// Value returns the observation of row i.
func (d *DesignMatrix) Value(i int) float64 {
	return d.values[i]
}

// Values returns a copy of all observation values in row order.
func (d *DesignMatrix) Values() []float64 {
	out := make([]float64, len(d.values))
	copy(out, d.values)
	return out
}

// Column returns a copy of one label level across all rows.
func (d *DesignMatrix) Column(level int) []float64 {
	out := make([]float64, len(d.labels))
	for i, path := range d.labels {
		out[i] = path[level]
	}
	return out
}

// WithValues builds a variant sharing this matrix's labels but carrying new
// observation values. Used by the reweighting bootstrap.
func (d *DesignMatrix) WithValues(values []float64) *DesignMatrix {
	if len(values) != len(d.values) {
		panic("stats: value count mismatch")
	}
	return &DesignMatrix{hierarchy: d.hierarchy, labels: d.labels, values: values}
}

// WithColumn builds a variant with one label level replaced across all rows.
// The variant is not revalidated: permuted label columns are intentionally
// out of lexicographic order.
func (d *DesignMatrix) WithColumn(level int, column []float64) *DesignMatrix {
	if len(column) != len(d.labels) {
		panic("stats: column length mismatch")
	}
	labels := make([][]float64, len(d.labels))
	for i, path := range d.labels {
		row := make([]float64, len(path))
		copy(row, path)
		row[level] = column[i]
		labels[i] = row
	}
	return &DesignMatrix{hierarchy: d.hierarchy, labels: labels, values: d.values}
}

// Select builds a sub-design keeping only rows whose treatment label is in
// keep. Row order, and therefore sortedness, is preserved.
func (d *DesignMatrix) Select(keep ...float64) (*DesignMatrix, error) {
	want := make(map[float64]bool, len(keep))
	for _, k := range keep {
		want[k] = true
	}
	var labels [][]float64
	var values []float64
	for i, path := range d.labels {
		if want[path[0]] {
			labels = append(labels, path)
			values = append(values, d.values[i])
		}
	}
	return NewDesignMatrix(d.hierarchy, labels, values)
}

// TreatmentGroups returns the distinct treatment-level labels in sorted order.
func (d *DesignMatrix) TreatmentGroups() []float64 {
	var groups []float64
	for i := range d.labels {
		l := d.labels[i][0]
		if len(groups) == 0 || groups[len(groups)-1] != l {
			groups = append(groups, l)
		}
	}
	return groups
}

// RebuildSorted re-sorts arbitrary rows and constructs a valid design.
// Used by the index bootstrap, which duplicates rows.
func RebuildSorted(h Hierarchy, labels [][]float64, values []float64) (*DesignMatrix, error) {
	idx := make([]int, len(labels))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return comparePaths(labels[idx[a]], labels[idx[b]]) < 0
	})
	outLabels := make([][]float64, len(labels))
	outValues := make([]float64, len(values))
	for i, j := range idx {
		outLabels[i] = labels[j]
		outValues[i] = values[j]
	}
	return NewDesignMatrix(h, outLabels, outValues)
}

func comparePaths(a, b []float64) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

