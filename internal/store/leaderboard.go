package store

import (
	"context"
	"fmt"
	"time"

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
)

// Leaderboard counts artists added and links submitted per user. Users with no
// activity are included with zero counts. A zero from or to leaves that side open;
// both bounds are inclusive.
func (db *DB) Leaderboard(ctx context.Context, from, to time.Time) ([]domain.LeaderboardEntry, error) {
	artistRange, artistArgs := timeRange("created_at", from, to)
	ugcRange, ugcArgs := timeRange("created_at", from, to)

	query := fmt.Sprintf(`SELECT
			u.id AS user_id,
			u.wallet,
			u.username,
			COALESCE(a.cnt, 0) AS artists_count,
			COALESCE(g.cnt, 0) AS ugc_count
		FROM users u
		LEFT JOIN (
			SELECT added_by, COUNT(*) AS cnt FROM artists
			WHERE added_by IS NOT NULL%s
			GROUP BY added_by
		) a ON a.added_by = u.id
		LEFT JOIN (
			SELECT user_id, COUNT(*) AS cnt FROM ugcresearch
			WHERE site_name != ?%s
			GROUP BY user_id
		) g ON g.user_id = u.id
		ORDER BY ugc_count DESC, artists_count DESC, u.rowid ASC`, artistRange, ugcRange)

	args := append([]interface{}{}, artistArgs...)
	args = append(args, constants.LegacyPingSiteName)
	args = append(args, ugcArgs...)

	entries := []domain.LeaderboardEntry{}
	if err := db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}
	return entries, nil
}

func timeRange(column string, from, to time.Time) (string, []interface{}) {
	var clause string
	var args []interface{}
	if !from.IsZero() {
		clause += " AND " + column + " >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		clause += " AND " + column + " <= ?"
		args = append(args, to.UTC())
	}
	return clause, args
}
