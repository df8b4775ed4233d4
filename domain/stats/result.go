package stats

import (
	"time"

	"github.com/google/uuid"
)

// Interval holds the bounds of a confidence interval.
type Interval struct {
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Coverage float64 `json:"coverage"`
}

// Contains reports whether v lies inside the interval.
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Lower && v <= iv.Upper
}

// TestResult is the immutable output of one hypothesis test invocation.
// CorrectedP is populated only by the multi-sample orchestrator.
type TestResult struct {
	ID          uuid.UUID   `json:"id"`
	Statistic   string      `json:"statistic"`
	Alternative Alternative `json:"alternative"`
	GroupA      float64     `json:"group_a"`
	GroupB      float64     `json:"group_b"`

	Observed float64 `json:"observed"`
	PValue   float64 `json:"p_value"`

	// ParametricP is the two-tailed Student's t reference p-value, set only
	// for the Welch statistic. The randomization PValue is the test's
	// answer; this one is a sanity reference.
	ParametricP *float64 `json:"parametric_p,omitempty"`

	CorrectedP float64 `json:"corrected_p,omitempty"`
	Correction string    `json:"correction,omitempty"`
	Interval   *Interval `json:"interval,omitempty"`

	Permutations int  `json:"permutations"`
	Bootstraps   int  `json:"bootstraps"`
	Exact        bool `json:"exact"`

	// Converged is false when the randomization engine exhausted its retry
	// budget looking for unique permutations and fell back to sampling with
	// replacement. The result is still usable, just less precise.
	Converged bool   `json:"converged"`
	Notice    string `json:"notice,omitempty"`

	// Null holds the finalized null distribution when the caller requested
	// diagnostic access; nil otherwise.
	Null *NullDistribution `json:"-"`

	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
}
