package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/musicnerd/musicnerd/internal/domain"
)

const coverageColumns = `id, repository, branch, commit_sha, coverage, created_at`

func (db *DB) CreateCoverageReport(ctx context.Context, report *domain.CoverageReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	report.CreatedAt = now()

	query := `INSERT INTO coverage_reports (` + coverageColumns + `) VALUES (
		:id, :repository, :branch, :commit_sha, :coverage, :created_at
	)`
	if _, err := db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("failed to create coverage report: %w", err)
	}
	return nil
}

// ListCoverageReports returns reports for repository and branch, newest first. An
// empty branch lists every branch.
func (db *DB) ListCoverageReports(ctx context.Context, repository, branch string, limit int) ([]*domain.CoverageReport, error) {
	query := `SELECT ` + coverageColumns + ` FROM coverage_reports WHERE repository = ?`
	args := []interface{}{repository}
	if branch != "" {
		query += ` AND branch = ?`
		args = append(args, branch)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	reports := []*domain.CoverageReport{}
	if err := db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list coverage reports: %w", err)
	}
	return reports, nil
}

func (db *DB) LatestCoverageReport(ctx context.Context, repository, branch string) (*domain.CoverageReport, error) {
	var report domain.CoverageReport
	err := db.GetContext(ctx, &report, `SELECT `+coverageColumns+` FROM coverage_reports
		WHERE repository = ? AND branch = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, repository, branch)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
