package excel

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"hierarchstats/domain/core"
	"hierarchstats/domain/stats"
	"hierarchstats/ports"
)

// DesignReader reads a hierarchical design from an Excel sheet. The first
// row is a header; every column except the last names a hierarchy level
// (coarsest first) and the last column holds the observation values. Rows
// are re-sorted lexicographically on load.
type DesignReader struct {
	filePath string
	sheet    string
}

// NewDesignReader creates a reader for one sheet of an xlsx file. An empty
// sheet name selects Sheet1.
func NewDesignReader(filePath, sheet string) ports.DesignReader {
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &DesignReader{filePath: filePath, sheet: sheet}
}

// ReadDesign loads and validates the design matrix.
func (r *DesignReader) ReadDesign() (*stats.DesignMatrix, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("excel file not found: %s", r.filePath)
	}

	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", r.sheet, err)
	}
	if len(rows) < 2 {
		return nil, core.NewDegenerateInputError("sheet has no data rows")
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, core.NewDegenerateInputError("need at least one hierarchy column and one value column")
	}
	depth := len(header) - 1
	levels := make([]string, depth)
	for i := 0; i < depth; i++ {
		levels[i] = strings.TrimSpace(header[i])
	}

	var labels [][]float64
	var values []float64
	for n, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		if len(row) < depth+1 {
			return nil, core.NewDegenerateInputError(fmt.Sprintf("row %d has %d cells, need %d", n+2, len(row), depth+1))
		}
		path := make([]float64, depth)
		for c := 0; c < depth; c++ {
			v, err := parseCell(row[c])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", n+2, header[c], err)
			}
			path[c] = v
		}
		value, err := parseCell(row[depth])
		if err != nil {
			return nil, fmt.Errorf("row %d column %s: %w", n+2, header[depth], err)
		}
		labels = append(labels, path)
		values = append(values, value)
	}

	return stats.RebuildSorted(stats.Hierarchy{Levels: levels}, labels, values)
}

func parseCell(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, core.NewDegenerateInputError(fmt.Sprintf("non-numeric cell %q", cell))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, core.NewDegenerateInputError(fmt.Sprintf("non-finite cell %q", cell))
	}
	return v, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
