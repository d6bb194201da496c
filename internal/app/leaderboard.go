package app

import (
	"context"
	"time"

	"github.com/musicnerd/musicnerd/internal/apperr"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/store"
)

type LeaderboardService struct {
	Repo *store.DB
}

func NewLeaderboardService(repo *store.DB) *LeaderboardService {
	return &LeaderboardService{Repo: repo}
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.Repo.Leaderboard(ctx, time.Time{}, time.Time{})
}

// GetLeaderboardInRange counts only activity between from and to, both inclusive.
func (s *LeaderboardService) GetLeaderboardInRange(ctx context.Context, from, to time.Time) ([]domain.LeaderboardEntry, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, apperr.Invalid("from must not be after to")
	}
	return s.Repo.Leaderboard(ctx, from, to)
}
