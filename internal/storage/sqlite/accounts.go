package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/storage"
)

const accountColumns = `id, username, email, password_hash, balance, created_at`

// CreateAccount inserts a new account. The balance always starts at zero;
// any starting credit must go through Apply.
func (q *queries) CreateAccount(ctx context.Context, account *models.Account) error {
	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, balance, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("account %q: %w", account.Username, storage.ErrConflict)
	}
	if err != nil {
		return models.StorageFailure("accounts.create", fmt.Errorf("failed to create account: %w", err))
	}

	account.Balance = 0
	return nil
}

// GetAccount retrieves an account by its ID.
func (q *queries) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account := &models.Account{}
	err := sqlx.GetContext(ctx, q.ext, account,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("accounts.get", accountID, "")
	}
	if err != nil {
		return nil, models.StorageFailure("accounts.get", fmt.Errorf("failed to get account: %w", err))
	}
	return account, nil
}

// GetAccountByUsername retrieves an account by its login name.
func (q *queries) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	account := &models.Account{}
	err := sqlx.GetContext(ctx, q.ext, account,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("accounts.get_by_username", "", "")
	}
	if err != nil {
		return nil, models.StorageFailure("accounts.get_by_username", fmt.Errorf("failed to get account by username: %w", err))
	}
	return account, nil
}

// GetBalance returns the current balance of an account.
func (q *queries) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := sqlx.GetContext(ctx, q.ext, &balance,
		`SELECT balance FROM accounts WHERE id = ?`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.NotFound("ledger.get_balance", accountID, "")
	}
	if err != nil {
		return 0, models.StorageFailure("ledger.get_balance", fmt.Errorf("failed to get balance: %w", err))
	}
	return balance, nil
}
