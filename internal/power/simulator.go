// Package power provides a hierarchical data simulator for planning
// studies and exercising the test orchestrators against designs with a
// known ground truth.
package power

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"hierarchstats/domain/core"
	hstats "hierarchstats/domain/stats"
)

// Simulator generates hierarchical designs where the observation is the
// sum of per-node effects along the label path plus optional leaf noise.
type Simulator struct {
	effects [][]float64
	sizes   []int
	sigma   float64
	rng     *core.RNG
}

// NewSimulator creates a simulator. effects holds one slice per hierarchy
// level with one fixed effect per node at that level.
func NewSimulator(effects [][]float64, rng *core.RNG) *Simulator {
	return &Simulator{effects: effects, rng: rng}
}

// WithNormalNoise adds N(0, sigma) noise to every generated observation.
func (s *Simulator) WithNormalNoise(sigma float64) *Simulator {
	s.sigma = sigma
	return s
}

// Fit validates the branching factors against the effect table.
// hierarchy[l] is the number of children under each node at level l-1;
// hierarchy[0] is the number of treatment nodes.
func (s *Simulator) Fit(hierarchy []int) error {
	if len(hierarchy) == 0 {
		return core.NewDegenerateInputError("empty hierarchy")
	}
	if len(hierarchy) != len(s.effects) {
		return core.NewDegenerateInputError("effect table depth does not match hierarchy depth")
	}
	nodes := 1
	for l, branch := range hierarchy {
		if branch < 1 {
			return core.NewDegenerateInputError(fmt.Sprintf("branching factor %d at level %d", branch, l))
		}
		nodes *= branch
		if len(s.effects[l]) != nodes {
			return core.NewDegenerateInputError(fmt.Sprintf(
				"level %d needs %d effects, got %d", l, nodes, len(s.effects[l])))
		}
	}
	s.sizes = hierarchy
	return nil
}

// Generate builds one design matrix. Labels are 1-based within each
// parent, matching the conventional design-matrix layout. Deterministic
// for a fixed simulator seed.
func (s *Simulator) Generate() (*hstats.DesignMatrix, error) {
	if s.sizes == nil {
		return nil, core.NewDegenerateInputError("simulator is not fitted")
	}

	depth := len(s.sizes)
	levels := make([]string, depth)
	levels[0] = "treatment"
	for l := 1; l < depth; l++ {
		levels[l] = "level " + strconv.Itoa(l)
	}

	var noise func() float64
	if s.sigma > 0 {
		dist := distuv.Normal{Mu: 0, Sigma: s.sigma, Src: s.rng.Source("simulate-noise")}
		noise = dist.Rand
	}

	rows := 1
	for _, branch := range s.sizes {
		rows *= branch
	}
	labels := make([][]float64, 0, rows)
	values := make([]float64, 0, rows)

	path := make([]int, depth) // node index within parent, 0-based
	for r := 0; r < rows; r++ {
		row := make([]float64, depth)
		value := 0.0
		abs := 0 // absolute node index at the current level
		for l := 0; l < depth; l++ {
			abs = abs*s.sizes[l] + path[l]
			row[l] = float64(path[l] + 1)
			value += s.effects[l][abs]
		}
		if noise != nil {
			value += noise()
		}
		labels = append(labels, row)
		values = append(values, value)

		for l := depth - 1; l >= 0; l-- {
			path[l]++
			if path[l] < s.sizes[l] {
				break
			}
			path[l] = 0
		}
	}
	return hstats.NewDesignMatrix(hstats.Hierarchy{Levels: levels}, labels, values)
}
