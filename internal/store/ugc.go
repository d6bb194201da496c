package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
)

const ugcColumns = `id, artist_id, user_id, site_name, ugc_url, site_username,
	accepted, date_processed, created_at, updated_at`

func (db *DB) CreateUGC(ctx context.Context, row *domain.UGCResearch) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	ts := now()
	row.CreatedAt = ts
	row.UpdatedAt = ts
	row.Accepted = false
	row.DateProcessed = nil

	query := `INSERT INTO ugcresearch (` + ugcColumns + `) VALUES (
		:id, :artist_id, :user_id, :site_name, :ugc_url, :site_username,
		:accepted, :date_processed, :created_at, :updated_at
	)`
	if _, err := db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create ugc row: %w", err)
	}
	return nil
}

func (db *DB) GetUGC(ctx context.Context, id string) (*domain.UGCResearch, error) {
	var row domain.UGCResearch
	err := db.GetContext(ctx, &row, `SELECT `+ugcColumns+` FROM ugcresearch WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindOpenUGC returns the oldest pending submission of url for the artist's site, if any.
func (db *DB) FindOpenUGC(ctx context.Context, artistID, siteName, url string) (*domain.UGCResearch, error) {
	var row domain.UGCResearch
	err := db.GetContext(ctx, &row, `SELECT `+ugcColumns+` FROM ugcresearch
		WHERE artist_id = ? AND site_name = ? AND ugc_url = ?
		  AND accepted = 0 AND date_processed IS NULL
		ORDER BY created_at ASC LIMIT 1`, artistID, siteName, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkUGCAccepted moves a pending row to accepted. It reports false when the row
// was already processed, so a repeated call changes nothing.
func (db *DB) MarkUGCAccepted(ctx context.Context, id string) (bool, error) {
	return db.markUGC(ctx, id, true)
}

// MarkUGCRejected moves a pending row to rejected; see MarkUGCAccepted.
func (db *DB) MarkUGCRejected(ctx context.Context, id string) (bool, error) {
	return db.markUGC(ctx, id, false)
}

func (db *DB) markUGC(ctx context.Context, id string, accepted bool) (bool, error) {
	ts := now()
	result, err := db.ExecContext(ctx, `UPDATE ugcresearch
		SET accepted = ?, date_processed = ?, updated_at = ?
		WHERE id = ? AND accepted = 0 AND date_processed IS NULL`, accepted, ts, ts, id)
	if err != nil {
		return false, fmt.Errorf("failed to update ugc status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ListPendingUGC returns unprocessed submissions, oldest first.
func (db *DB) ListPendingUGC(ctx context.Context, limit int) ([]*domain.UGCResearch, error) {
	rows := []*domain.UGCResearch{}
	err := db.SelectContext(ctx, &rows, `SELECT `+ugcColumns+` FROM ugcresearch
		WHERE accepted = 0 AND date_processed IS NULL AND site_name != ?
		ORDER BY created_at ASC LIMIT ?`, constants.LegacyPingSiteName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending ugc: %w", err)
	}
	return rows, nil
}

// ListUGCByUser returns one user's submissions, newest first.
func (db *DB) ListUGCByUser(ctx context.Context, userID string, limit int) ([]*domain.UGCResearch, error) {
	rows := []*domain.UGCResearch{}
	err := db.SelectContext(ctx, &rows, `SELECT `+ugcColumns+` FROM ugcresearch
		WHERE user_id = ? AND site_name != ?
		ORDER BY created_at DESC LIMIT ?`, userID, constants.LegacyPingSiteName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ugc for user: %w", err)
	}
	return rows, nil
}
