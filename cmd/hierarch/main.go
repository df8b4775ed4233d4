package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"hierarchstats/adapters/excel"
	"hierarchstats/domain/core"
	"hierarchstats/domain/stats"
	"hierarchstats/internal"
	"hierarchstats/internal/hypothesis"
	"hierarchstats/internal/power"
	"hierarchstats/internal/report"
	"hierarchstats/internal/resample"
)

func main() {
	var (
		file         = flag.String("file", "", "xlsx file with a design matrix (header row, value column last)")
		sheet        = flag.String("sheet", "", "sheet name (default Sheet1)")
		statistic    = flag.String("statistic", "", "test statistic: welch or studentized_covariance")
		alternative  = flag.String("alternative", "two-sided", "alternative: two-sided, less or greater")
		permutations = flag.Int("permutations", 1000, "permutations per bootstrap replicate")
		bootstraps   = flag.Int("bootstraps", 100, "bootstrap replicates")
		kind         = flag.String("kind", "weights", "bootstrap kind: weights, bayesian or indexes")
		coverage     = flag.Float64("coverage", 0, "confidence interval coverage in (0,1); 0 disables")
		seed         = flag.Int64("seed", 0, "random seed")
		correction   = flag.String("correction", "", "multi-sample correction: holm, bh or none")
		simulate     = flag.Bool("simulate", false, "run on a simulated two-treatment design instead of a file")
	)
	flag.Parse()

	logger := internal.NewDefaultLogger()

	design, err := loadDesign(*file, *sheet, *simulate, *seed)
	if err != nil {
		logger.Error("loading design: %v", err)
		os.Exit(1)
	}

	opts := hypothesis.Options{
		Statistic:    *statistic,
		Alternative:  stats.Alternative(*alternative),
		Permutations: *permutations,
		Bootstraps:   *bootstraps,
		Kind:         resample.Kind(*kind),
		Coverage:     *coverage,
		Seed:         *seed,
	}

	ctx := context.Background()
	groups := design.TreatmentGroups()

	var results []*stats.TestResult
	if len(groups) > 2 || *correction != "" {
		results, err = hypothesis.MultiSampleTest(ctx, design, opts, *correction)
	} else {
		var r *stats.TestResult
		r, err = hypothesis.Test(ctx, design, opts)
		if r != nil {
			results = []*stats.TestResult{r}
		}
	}
	if err != nil {
		logger.Error("test failed: %v", err)
		os.Exit(1)
	}

	fmt.Print(report.Markdown("Hierarchical randomization test", results...))
}

func loadDesign(file, sheet string, simulate bool, seed int64) (*stats.DesignMatrix, error) {
	if file != "" {
		return excel.NewDesignReader(file, sheet).ReadDesign()
	}
	if !simulate {
		return nil, fmt.Errorf("either -file or -simulate is required")
	}

	// Two treatments, three units each, four measurements per unit, with a
	// one-unit treatment effect hidden under unit-level variation.
	effects := [][]float64{
		{0, 1},
		{-0.5, 0, 0.5, -0.5, 0, 0.5},
		make([]float64, 24),
	}
	sim := power.NewSimulator(effects, core.NewRNG(seed)).WithNormalNoise(0.25)
	if err := sim.Fit([]int{2, 3, 4}); err != nil {
		return nil, err
	}
	return sim.Generate()
}
