package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by writes that matched no row.
var ErrNotFound = errors.New("not found")

// dbOps is the query surface shared by *sqlx.DB and *sqlx.Tx.
type dbOps interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type DB struct {
	dbOps
	root *sqlx.DB
	inTx bool
}

// sqliteParams are applied to every pooled connection, not just the first one.
var sqliteParams = []string{
	"_pragma=busy_timeout(30000)",
	"_pragma=journal_mode(WAL)",
	"_pragma=foreign_keys(1)",
	"_time_format=sqlite",
	"_txlock=immediate",
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(sqliteParams, "&")
}

func NewSQLiteDB(path string) (*DB, error) {
	db, err := sqlx.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{dbOps: db, root: db}, nil
}

// New wraps an already opened handle without touching the schema.
func New(db *sqlx.DB) *DB {
	return &DB{dbOps: db, root: db}
}

func (db *DB) Close() error {
	return db.root.Close()
}

// Ping checks the underlying connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.root.PingContext(ctx)
}

// RunInTx runs fn against a transaction-scoped DB. fn's error rolls back; nested calls
// join the outer transaction.
func (db *DB) RunInTx(ctx context.Context, fn func(tx *DB) error) error {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.root.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	txDB := &DB{
		dbOps: tx,
		root:  db.root,
		inTx:  true,
	}

	if err := fn(txDB); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

func expectOneRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
