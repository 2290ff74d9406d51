package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/honeyfile/internal/models"
)

// Apply mutates the balance with one conditional UPDATE and appends the
// transaction row. Callers outside a unit of work go through
// SQLiteStore.Apply, which wraps this in its own transaction.
func (q *queries) Apply(ctx context.Context, entry models.Entry) (*models.Transaction, error) {
	const op = "ledger.apply"

	if entry.Amount <= 0 || !entry.Kind.Valid() {
		return nil, models.InvalidAmount(op, entry.AccountID, entry.Amount)
	}

	var (
		balanceAfter int64
		err          error
	)
	switch entry.Kind {
	case models.KindEarn:
		err = sqlx.GetContext(ctx, q.ext, &balanceAfter, `
			UPDATE accounts SET balance = balance + ?
			WHERE id = ?
			RETURNING balance
		`, entry.Amount, entry.AccountID)
	case models.KindSpend:
		err = sqlx.GetContext(ctx, q.ext, &balanceAfter, `
			UPDATE accounts SET balance = balance - ?
			WHERE id = ? AND balance >= ?
			RETURNING balance
		`, entry.Amount, entry.AccountID, entry.Amount)
	}

	if errors.Is(err, sql.ErrNoRows) {
		// Either the account is missing or the spend guard rejected it.
		available, berr := q.GetBalance(ctx, entry.AccountID)
		if berr != nil {
			return nil, berr
		}
		return nil, models.InsufficientFunds(op, entry.AccountID, entry.FileID, entry.Amount, available)
	}
	if err != nil {
		return nil, models.StorageFailure(op, fmt.Errorf("failed to update balance: %w", err))
	}

	txn := &models.Transaction{
		AccountID:    entry.AccountID,
		Kind:         entry.Kind,
		Amount:       entry.Amount,
		Description:  entry.Description,
		FileID:       entry.FileID,
		BalanceAfter: balanceAfter,
		CreatedAt:    time.Now().Unix(),
	}

	res, err := q.ext.ExecContext(ctx, `
		INSERT INTO transactions (account_id, kind, amount, description, file_id, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		txn.AccountID, txn.Kind, txn.Amount, txn.Description,
		nullable(txn.FileID), txn.BalanceAfter, txn.CreatedAt,
	)
	if err != nil {
		return nil, models.StorageFailure(op, fmt.Errorf("failed to insert transaction: %w", err))
	}

	txn.ID, err = res.LastInsertId()
	if err != nil {
		return nil, models.StorageFailure(op, fmt.Errorf("failed to read transaction id: %w", err))
	}

	return txn, nil
}

// SumTransactions totals an account's transactions of one kind.
func (q *queries) SumTransactions(ctx context.Context, accountID string, kind models.TransactionKind) (int64, error) {
	var total int64
	err := sqlx.GetContext(ctx, q.ext, &total, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE account_id = ? AND kind = ?
	`, accountID, kind)
	if err != nil {
		return 0, models.StorageFailure("ledger.sum", fmt.Errorf("failed to sum transactions: %w", err))
	}
	return total, nil
}

// ListTransactions returns one page of an account's ledger, newest first.
func (q *queries) ListTransactions(ctx context.Context, accountID string, page models.Page) ([]models.TransactionView, error) {
	page = page.Normalize()

	var txns []models.TransactionView
	err := sqlx.SelectContext(ctx, q.ext, &txns, `
		SELECT t.id, t.account_id, t.kind, t.amount, t.description,
		       COALESCE(t.file_id, '') AS file_id, t.balance_after, t.created_at,
		       COALESCE(f.original_name, '') AS file_name
		FROM transactions t
		LEFT JOIN files f ON t.file_id = f.id
		WHERE t.account_id = ?
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?
	`, accountID, page.Limit, page.Offset)
	if err != nil {
		return nil, models.StorageFailure("ledger.list", fmt.Errorf("failed to list transactions: %w", err))
	}
	return txns, nil
}

// CountTransactions returns the number of ledger rows for an account.
func (q *queries) CountTransactions(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, q.ext, &n,
		`SELECT COUNT(*) FROM transactions WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, models.StorageFailure("ledger.count", fmt.Errorf("failed to count transactions: %w", err))
	}
	return n, nil
}
