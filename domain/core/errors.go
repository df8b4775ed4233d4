package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrDegenerateInput  = errors.New("degenerate input")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrUnsortedDesign   = fmt.Errorf("%w: design matrix is not lexicographically sorted", ErrDegenerateInput)
	ErrIncompletePath   = fmt.Errorf("%w: observation is missing a hierarchy label", ErrDegenerateInput)

	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrResultNotFound = fmt.Errorf("%w: test result", ErrNotFound)

	// Configuration errors
	ErrInvalidStatistic = errors.New("unknown test statistic")
	ErrInvalidKind      = errors.New("unknown bootstrap kind")
	ErrInvalidCoverage  = errors.New("coverage must be in (0, 1)")

	// Lifecycle errors
	ErrDistributionOpen  = errors.New("null distribution not finalized")
	ErrDistributionFinal = errors.New("null distribution already finalized")
)

// Error constructors with context
func NewDegenerateInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDegenerateInput, reason)
}

func NewInsufficientDataError(level string, units, min int) error {
	return fmt.Errorf("%w: level %q has %d units, need at least %d", ErrInsufficientData, level, units, min)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsDegenerateInput(err error) bool {
	return errors.Is(err, ErrDegenerateInput)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
