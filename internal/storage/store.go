// Package storage provides abstractions for the durable point ledger.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/honeyfile/internal/models"
)

// ErrConflict is returned when a unique account field is already taken.
var ErrConflict = errors.New("already exists")

// Reader is the read side of the ledger, file and entitlement tables.
// Lookups of missing rows return a models.KindNotFound error.
type Reader interface {
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	GetBalance(ctx context.Context, accountID string) (int64, error)

	// GetFile returns the record whether or not it is active.
	GetFile(ctx context.Context, fileID string) (*models.FileRecord, error)

	HasEntitlement(ctx context.Context, accountID, fileID string) (bool, error)

	CountActiveUploads(ctx context.Context, accountID string) (int64, error)
	SumDownloadsReceived(ctx context.Context, accountID string) (int64, error)
	SumTransactions(ctx context.Context, accountID string, kind models.TransactionKind) (int64, error)

	// ListTransactions returns the account's transactions, newest first.
	ListTransactions(ctx context.Context, accountID string, page models.Page) ([]models.TransactionView, error)
	CountTransactions(ctx context.Context, accountID string) (int64, error)

	// ListEntitlements returns the account's download history, newest first.
	ListEntitlements(ctx context.Context, accountID string, page models.Page) ([]models.EntitlementView, error)
	CountEntitlements(ctx context.Context, accountID string) (int64, error)
}

// Tx is a unit of work. Every change made through a Tx commits or rolls
// back together.
type Tx interface {
	Reader

	// Apply mutates the account balance and appends one transaction row.
	// Spends are a single conditional update, so the balance check and
	// the debit cannot be separated by another writer.
	Apply(ctx context.Context, entry models.Entry) (*models.Transaction, error)

	// Grant records an entitlement. If one already exists for the pair it
	// is returned with created=false and nothing is written.
	Grant(ctx context.Context, accountID, fileID string, amountPaid int64) (ent *models.Entitlement, created bool, err error)

	IncrementDownloadCount(ctx context.Context, fileID string) error

	// CreateAccount inserts an account with a zero balance.
	// Returns ErrConflict if the username or email is taken.
	CreateAccount(ctx context.Context, account *models.Account) error

	CreateFile(ctx context.Context, file *models.FileRecord) error
	SetFileActive(ctx context.Context, fileID string, active bool) error
}

// FileFilter selects active files for catalog listings.
type FileFilter struct {
	// Category is ignored when empty or "all".
	Category string
	// Query matches a substring of the original file name.
	Query string
	Page  models.Page
}

// Store defines the full ledger storage backend.
// Tx methods called directly on a Store run in their own transaction.
type Store interface {
	Tx

	// InTx runs fn inside one serializable write transaction.
	// If fn returns an error, nothing it did is persisted.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// ReadTx runs fn against one consistent snapshot.
	ReadTx(ctx context.Context, fn func(r Reader) error) error

	// GetAccountByUsername returns a KindNotFound error for unknown names.
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)

	// ListFiles returns one page of active files, newest first, and the
	// total number of matches.
	ListFiles(ctx context.Context, filter FileFilter) ([]*models.FileRecord, int64, error)

	// Close releases any resources held by the store.
	Close() error
}
