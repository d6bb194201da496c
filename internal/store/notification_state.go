package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/musicnerd/musicnerd/internal/constants"
)

// NotificationStateRepo keeps the last time each notification key fired.
type NotificationStateRepo struct {
	db *DB
}

func NewNotificationStateRepo(db *DB) *NotificationStateRepo {
	return &NotificationStateRepo{db: db}
}

// GetLastSent returns the zero time when key never fired. For the Discord ping key it
// falls back to the legacy sentinel row in ugcresearch written by older deployments.
func (r *NotificationStateRepo) GetLastSent(ctx context.Context, key string) (time.Time, error) {
	var last time.Time
	err := r.db.GetContext(ctx, &last, `SELECT last_sent_at FROM notification_state WHERE key = ?`, key)
	if err == nil {
		return last, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("failed to read notification state: %w", err)
	}
	if key != constants.DiscordPingKey {
		return time.Time{}, nil
	}

	err = r.db.GetContext(ctx, &last, `SELECT updated_at FROM ugcresearch
		WHERE site_name = ? ORDER BY updated_at DESC LIMIT 1`, constants.LegacyPingSiteName)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read legacy ping row: %w", err)
	}
	return last, nil
}

func (r *NotificationStateRepo) SetLastSent(ctx context.Context, key string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_state (key, last_sent_at) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET last_sent_at = excluded.last_sent_at
	`, key, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to write notification state: %w", err)
	}
	return nil
}
