package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"hierarchstats/domain/core"
	"hierarchstats/domain/stats"
	apperrors "hierarchstats/internal/errors"
	"hierarchstats/ports"
)

// dbError tags a database failure with the DATABASE_ERROR code so the
// transport layer can tell storage trouble from bad input.
func dbError(err error, message string) error {
	if err == nil {
		return nil
	}
	return apperrors.WithCode(apperrors.CodeDatabaseError, apperrors.Wrap(err, message))
}

// ResultRepositoryImpl implements ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// EnsureSchema creates the results table if it does not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS test_results (
			id UUID PRIMARY KEY,
			statistic TEXT NOT NULL,
			alternative TEXT NOT NULL,
			group_a DOUBLE PRECISION NOT NULL,
			group_b DOUBLE PRECISION NOT NULL,
			observed DOUBLE PRECISION NOT NULL,
			p_value DOUBLE PRECISION NOT NULL,
			parametric_p DOUBLE PRECISION,
			corrected_p DOUBLE PRECISION,
			correction TEXT,
			interval JSONB,
			permutations INTEGER NOT NULL,
			bootstraps INTEGER NOT NULL,
			exact_enumeration BOOLEAN NOT NULL,
			converged BOOLEAN NOT NULL,
			notice TEXT,
			seed BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return dbError(err, "creating test_results table")
}

// SaveResult upserts a test result by id.
func (r *ResultRepositoryImpl) SaveResult(ctx context.Context, result *stats.TestResult) error {
	var intervalJSON []byte
	if result.Interval != nil {
		intervalJSON, _ = json.Marshal(result.Interval)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO test_results (
			id, statistic, alternative, group_a, group_b, observed,
			p_value, parametric_p, corrected_p, correction, interval, permutations,
			bootstraps, exact_enumeration, converged, notice, seed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			corrected_p = EXCLUDED.corrected_p,
			correction = EXCLUDED.correction,
			interval = EXCLUDED.interval,
			notice = EXCLUDED.notice`,
		result.ID, result.Statistic, string(result.Alternative), result.GroupA, result.GroupB,
		result.Observed, result.PValue, result.ParametricP, result.CorrectedP, result.Correction,
		intervalJSON, result.Permutations, result.Bootstraps, result.Exact, result.Converged,
		result.Notice, result.Seed, result.CreatedAt)
	return dbError(err, "saving test result "+result.ID.String())
}

// GetResult retrieves one result by id.
func (r *ResultRepositoryImpl) GetResult(ctx context.Context, id uuid.UUID) (*stats.TestResult, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, statistic, alternative, group_a, group_b, observed,
		       p_value, parametric_p, corrected_p, correction, interval, permutations,
		       bootstraps, exact_enumeration, converged, notice, seed, created_at
		FROM test_results WHERE id = $1`, id)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("test result", id.String())
	}
	if err != nil {
		return nil, dbError(err, "loading test result "+id.String())
	}
	return result, nil
}

// ListResults returns the most recent results, newest first.
func (r *ResultRepositoryImpl) ListResults(ctx context.Context, limit int) ([]*stats.TestResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, statistic, alternative, group_a, group_b, observed,
		       p_value, parametric_p, corrected_p, correction, interval, permutations,
		       bootstraps, exact_enumeration, converged, notice, seed, created_at
		FROM test_results ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, dbError(err, "listing test results")
	}
	defer rows.Close()

	var results []*stats.TestResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, dbError(err, "scanning test result row")
		}
		results = append(results, result)
	}
	return results, dbError(rows.Err(), "listing test results")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (*stats.TestResult, error) {
	var result stats.TestResult
	var alternative string
	var parametricP, correctedP sql.NullFloat64
	var correction, notice sql.NullString
	var intervalJSON []byte

	err := row.Scan(
		&result.ID, &result.Statistic, &alternative, &result.GroupA, &result.GroupB,
		&result.Observed, &result.PValue, &parametricP, &correctedP, &correction,
		&intervalJSON, &result.Permutations, &result.Bootstraps, &result.Exact,
		&result.Converged, &notice, &result.Seed, &result.CreatedAt)
	if err != nil {
		return nil, err
	}

	result.Alternative = stats.Alternative(alternative)
	if parametricP.Valid {
		p := parametricP.Float64
		result.ParametricP = &p
	}
	if correctedP.Valid {
		result.CorrectedP = correctedP.Float64
	}
	result.Correction = correction.String
	result.Notice = notice.String
	if len(intervalJSON) > 0 {
		var iv stats.Interval
		if err := json.Unmarshal(intervalJSON, &iv); err == nil {
			result.Interval = &iv
		}
	}
	return &result, nil
}
