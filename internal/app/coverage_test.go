package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/musicnerd/musicnerd/internal/domain"
)

func TestCoverageService(t *testing.T) {
	svc := NewCoverageService(setupTestDB(t))
	ctx := context.Background()

	for _, sha := range []string{"aaa", "bbb"} {
		err := svc.Append(ctx, &domain.CoverageReport{
			Repository: "musicnerd/musicnerd", Branch: "main", CommitSHA: sha,
			Coverage: domain.CoverageJSON{Lines: 81.5, Statements: 80, Functions: 70, Branches: 60},
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	reports, err := svc.List(ctx, "musicnerd/musicnerd", "main", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 2 || reports[0].CommitSHA != "bbb" || reports[0].Coverage.Lines != 81.5 {
		t.Errorf("reports = %+v", reports)
	}

	err = svc.Append(ctx, &domain.CoverageReport{Repository: "r", Branch: "main", CommitSHA: "c",
		Coverage: domain.CoverageJSON{Lines: 101}})
	wantStatus(t, err, http.StatusBadRequest)
	err = svc.Append(ctx, &domain.CoverageReport{Repository: "r"})
	wantStatus(t, err, http.StatusBadRequest)
	_, err = svc.List(ctx, " ", "", 0)
	wantStatus(t, err, http.StatusBadRequest)
}
