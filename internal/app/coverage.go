package app

import (
	"context"
	"strings"

	"github.com/musicnerd/musicnerd/internal/apperr"
	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/store"
)

type CoverageService struct {
	Repo *store.DB
}

func NewCoverageService(repo *store.DB) *CoverageService {
	return &CoverageService{Repo: repo}
}

// Append stores one CI coverage snapshot.
func (s *CoverageService) Append(ctx context.Context, report *domain.CoverageReport) error {
	report.Repository = strings.TrimSpace(report.Repository)
	report.Branch = strings.TrimSpace(report.Branch)
	report.CommitSHA = strings.TrimSpace(report.CommitSHA)
	if report.Repository == "" || report.Branch == "" || report.CommitSHA == "" {
		return apperr.Invalid("repository, branch and commitSha are required")
	}

	c := report.Coverage
	for name, v := range map[string]float64{
		"lines": c.Lines, "statements": c.Statements, "functions": c.Functions, "branches": c.Branches,
	} {
		if v < 0 || v > 100 {
			return apperr.Invalid("coverage.%s must be between 0 and 100", name)
		}
	}
	return s.Repo.CreateCoverageReport(ctx, report)
}

// List returns reports newest first; an empty branch lists every branch.
func (s *CoverageService) List(ctx context.Context, repository, branch string, limit int) ([]*domain.CoverageReport, error) {
	if strings.TrimSpace(repository) == "" {
		return nil, apperr.Invalid("repository is required")
	}
	return s.Repo.ListCoverageReports(ctx, repository, branch, clampLimit(limit, constants.MaxSearchResults))
}
