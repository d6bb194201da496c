package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/musicnerd/musicnerd/internal/domain"
)

const userColumns = `id, wallet, email, username, is_admin, is_white_listed, legacy_id, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Wallet = domain.NormalizeWallet(user.Wallet)
	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts

	query := `INSERT INTO users (` + userColumns + `) VALUES (
		:id, :wallet, :email, :username, :is_admin, :is_white_listed, :legacy_id, :created_at, :updated_at
	)`
	if _, err := db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (db *DB) GetUserByWallet(ctx context.Context, wallet string) (*domain.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE wallet = ?`, domain.NormalizeWallet(wallet))
}

func (db *DB) getUser(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var user domain.User
	err := db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser inserts user unless a row with the same id or wallet exists, then returns
// the stored row.
func (db *DB) EnsureUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Wallet = domain.NormalizeWallet(user.Wallet)
	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts

	query := `INSERT INTO users (` + userColumns + `) VALUES (
		:id, :wallet, :email, :username, :is_admin, :is_white_listed, :legacy_id, :created_at, :updated_at
	) ON CONFLICT DO NOTHING`
	if _, err := db.NamedExecContext(ctx, query, user); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return db.GetUserByWallet(ctx, user.Wallet)
}

func (db *DB) UpdateUserProfile(ctx context.Context, id string, username, email *string) error {
	result, err := db.ExecContext(ctx, `UPDATE users
		SET username = COALESCE(?, username), email = COALESCE(?, email), updated_at = ?
		WHERE id = ?`, username, email, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOneRow(result, "user "+id)
}

func (db *DB) SetWhitelisted(ctx context.Context, id string, listed bool) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET is_white_listed = ?, updated_at = ? WHERE id = ?`,
		listed, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update whitelist: %w", err)
	}
	return expectOneRow(result, "user "+id)
}

func (db *DB) ListWhitelistedUsers(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	err := db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users
		WHERE is_white_listed = 1 ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list whitelisted users: %w", err)
	}
	return users, nil
}
