package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/musicnerd/musicnerd/internal/domain"
)

const artistColumns = `id, name, lcname,
	spotify, instagram, x, youtube, soundcloud, tiktok, facebook, bandcamp,
	audius, zora, catalog, soundxyz, lens, farcaster, ens, wallet,
	bio, added_by, created_at, updated_at`

// lookupColumns are the artist columns GetArtistByColumn accepts besides platform columns.
var lookupColumns = map[string]bool{
	"id":   true,
	"name": true,
}

// ArtistLookupColumn returns the canonical column name for a point lookup, or false
// when column is neither a platform nor one of the lookupColumns.
func ArtistLookupColumn(column string) (string, bool) {
	column = strings.ToLower(strings.TrimSpace(column))
	if lookupColumns[column] {
		return column, true
	}
	p, ok := domain.LookupPlatform(column)
	if !ok {
		return "", false
	}
	return p.Column(), true
}

func (db *DB) CreateArtist(ctx context.Context, artist *domain.Artist) error {
	artist.Normalize()
	if artist.ID == "" {
		artist.ID = uuid.New().String()
	}
	ts := now()
	artist.CreatedAt = ts
	artist.UpdatedAt = ts

	query := `INSERT INTO artists (` + artistColumns + `) VALUES (
		:id, :name, :lcname,
		:spotify, :instagram, :x, :youtube, :soundcloud, :tiktok, :facebook, :bandcamp,
		:audius, :zora, :catalog, :soundxyz, :lens, :farcaster, :ens, :wallet,
		:bio, :added_by, :created_at, :updated_at
	)`

	if _, err := db.NamedExecContext(ctx, query, artist); err != nil {
		return fmt.Errorf("failed to create artist: %w", err)
	}
	return nil
}

func (db *DB) GetArtistByID(ctx context.Context, id string) (*domain.Artist, error) {
	return db.getArtist(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ?`, id)
}

// GetArtistByColumn looks an artist up by exactly one column. Name lookups compare
// against the lower-cased search key.
func (db *DB) GetArtistByColumn(ctx context.Context, column, value string) (*domain.Artist, error) {
	col, ok := ArtistLookupColumn(column)
	if !ok {
		return nil, fmt.Errorf("invalid lookup column: %s", column)
	}
	if col == "name" {
		col = "lcname"
		value = strings.ToLower(strings.TrimSpace(value))
	}
	query := fmt.Sprintf(`SELECT %s FROM artists WHERE %s = ? ORDER BY created_at ASC LIMIT 1`, artistColumns, col)
	return db.getArtist(ctx, query, value)
}

func (db *DB) getArtist(ctx context.Context, query string, args ...interface{}) (*domain.Artist, error) {
	var artist domain.Artist
	err := db.GetContext(ctx, &artist, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

// SearchArtistsByName matches q anywhere in the lower-cased name. Exact matches rank
// first, then prefix matches, then the rest; ties are alphabetical.
func (db *DB) SearchArtistsByName(ctx context.Context, q string, limit int) ([]*domain.Artist, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []*domain.Artist{}, nil
	}
	escaped := escapeLike(q)

	query := `SELECT ` + artistColumns + ` FROM artists
		WHERE lcname LIKE ? ESCAPE '\'
		ORDER BY
			CASE
				WHEN lcname = ? THEN 0
				WHEN lcname LIKE ? ESCAPE '\' THEN 1
				ELSE 2
			END,
			lcname ASC,
			created_at ASC
		LIMIT ?`

	artists := []*domain.Artist{}
	err := db.SelectContext(ctx, &artists, query, "%"+escaped+"%", q, escaped+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search artists: %w", err)
	}
	return artists, nil
}

// SetArtistPlatform writes one platform column; a nil handle clears it.
func (db *DB) SetArtistPlatform(ctx context.Context, artistID string, platform domain.Platform, handle *string) error {
	query := fmt.Sprintf(`UPDATE artists SET %s = ?, updated_at = ? WHERE id = ?`, platform.Column())
	result, err := db.ExecContext(ctx, query, handle, now(), artistID)
	if err != nil {
		return fmt.Errorf("failed to update artist %s: %w", platform.Column(), err)
	}
	return expectOneRow(result, "artist "+artistID)
}

func (db *DB) UpdateArtistBio(ctx context.Context, artistID, bio string) error {
	result, err := db.ExecContext(ctx, `UPDATE artists SET bio = ?, updated_at = ? WHERE id = ?`, bio, now(), artistID)
	if err != nil {
		return fmt.Errorf("failed to update artist bio: %w", err)
	}
	return expectOneRow(result, "artist "+artistID)
}

func (db *DB) CountArtists(ctx context.Context) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM artists`)
	return count, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
