// Package report renders test results as markdown and HTML summaries.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"hierarchstats/domain/stats"
)

// Markdown renders one or more test results as a markdown document.
func Markdown(title string, results ...*stats.TestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	corrected := false
	for _, r := range results {
		if r.Correction != "" {
			corrected = true
			break
		}
	}

	if corrected {
		b.WriteString("| comparison | statistic | observed | p | corrected p | method |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, r := range results {
			fmt.Fprintf(&b, "| %g vs %g | %s | %.4f | %.4g | %.4g | %s |\n",
				r.GroupA, r.GroupB, r.Statistic, r.Observed, r.PValue, r.CorrectedP, r.Correction)
		}
	} else {
		b.WriteString("| comparison | statistic | observed | p |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, r := range results {
			fmt.Fprintf(&b, "| %g vs %g | %s | %.4f | %.4g |\n",
				r.GroupA, r.GroupB, r.Statistic, r.Observed, r.PValue)
		}
	}
	b.WriteString("\n")

	for _, r := range results {
		if r.ParametricP != nil {
			fmt.Fprintf(&b, "- %g vs %g: parametric reference p %.4g (Student's t)\n",
				r.GroupA, r.GroupB, *r.ParametricP)
		}
		if r.Interval != nil {
			fmt.Fprintf(&b, "- %g vs %g: %.0f%% CI [%.4f, %.4f]\n",
				r.GroupA, r.GroupB, r.Interval.Coverage*100, r.Interval.Lower, r.Interval.Upper)
		}
		if r.Exact {
			fmt.Fprintf(&b, "- %g vs %g: exact enumeration of the permutation space\n", r.GroupA, r.GroupB)
		}
		if !r.Converged {
			fmt.Fprintf(&b, "- %g vs %g: **convergence advisory**: %s\n", r.GroupA, r.GroupB, r.Notice)
		}
	}

	if len(results) > 0 {
		r := results[0]
		fmt.Fprintf(&b, "\n%d permutations x %d bootstraps, seed %d.\n",
			r.Permutations, r.Bootstraps, r.Seed)
	}
	return b.String()
}

// HTML renders the markdown report to an HTML fragment.
func HTML(title string, results ...*stats.TestResult) []byte {
	md := Markdown(title, results...)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}
