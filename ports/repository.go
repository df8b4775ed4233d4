package ports

import (
	"context"

	"github.com/google/uuid"

	"hierarchstats/domain/stats"
)

// ResultRepository persists finished test results. Results are immutable;
// saving an existing id overwrites the stored copy.
type ResultRepository interface {
	SaveResult(ctx context.Context, result *stats.TestResult) error
	GetResult(ctx context.Context, id uuid.UUID) (*stats.TestResult, error)
	ListResults(ctx context.Context, limit int) ([]*stats.TestResult, error)
}
