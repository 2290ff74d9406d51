// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// Ensure queries implements storage.Tx
var _ storage.Tx = (*queries)(nil)

// SQLiteStore implements storage.Store using SQLite.
//
// Every transaction is opened with BEGIN IMMEDIATE, so write units take the
// database write lock up front and run one at a time. A read inside a unit
// therefore sees every unit committed before it.
type SQLiteStore struct {
	queries
	db *sqlx.DB
}

// Option configures a SQLiteStore.
type Option func(*options)

type options struct {
	busyTimeout time.Duration
}

// WithBusyTimeout sets how long a connection waits for the write lock
// before failing with SQLITE_BUSY.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := options{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dsn(dbPath, o))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{queries: queries{ext: db}, db: db}, nil
}

// dsn builds the modernc connection string. Pragmas run on every new
// pooled connection, busy_timeout first so the WAL switch can wait too.
func dsn(path string, o options) string {
	v := url.Values{}
	v.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", o.busyTimeout.Milliseconds()))
	v.Add("_pragma", "journal_mode(WAL)")
	v.Add("_pragma", "foreign_keys(1)")
	v.Set("_txlock", "immediate")
	return path + "?" + v.Encode()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InTx runs fn inside one write transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.StorageFailure("store.begin", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(&queries{ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return models.StorageFailure("store.commit", fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// ReadTx runs fn against one snapshot. The transaction is always rolled back.
func (s *SQLiteStore) ReadTx(ctx context.Context, fn func(r storage.Reader) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.StorageFailure("store.begin", fmt.Errorf("failed to begin read transaction: %w", err))
	}
	defer tx.Rollback()

	return fn(&queries{ext: tx})
}

// Apply runs a single ledger mutation in its own transaction.
func (s *SQLiteStore) Apply(ctx context.Context, entry models.Entry) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.InTx(ctx, func(tx storage.Tx) error {
		var err error
		txn, err = tx.Apply(ctx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Grant records an entitlement in its own transaction.
func (s *SQLiteStore) Grant(ctx context.Context, accountID, fileID string, amountPaid int64) (*models.Entitlement, bool, error) {
	var (
		ent     *models.Entitlement
		created bool
	)
	err := s.InTx(ctx, func(tx storage.Tx) error {
		var err error
		ent, created, err = tx.Grant(ctx, accountID, fileID, amountPaid)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return ent, created, nil
}

// queries implements storage.Tx on top of either the database handle or an
// open transaction.
type queries struct {
	ext sqlx.ExtContext
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
