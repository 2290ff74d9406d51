package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/honeyfile/internal/models"
)

// HasEntitlement reports whether the account has already settled the file.
func (q *queries) HasEntitlement(ctx context.Context, accountID, fileID string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q.ext, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM entitlements WHERE account_id = ? AND file_id = ?
		)
	`, accountID, fileID)
	if err != nil {
		return false, models.StorageFailure("entitlements.has", fmt.Errorf("failed to check entitlement: %w", err))
	}
	return exists, nil
}

// Grant inserts an entitlement unless one already exists for the pair.
func (q *queries) Grant(ctx context.Context, accountID, fileID string, amountPaid int64) (*models.Entitlement, bool, error) {
	const op = "entitlements.grant"

	res, err := q.ext.ExecContext(ctx, `
		INSERT INTO entitlements (account_id, file_id, amount_paid, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (account_id, file_id) DO NOTHING
	`, accountID, fileID, amountPaid, time.Now().Unix())
	if err != nil {
		return nil, false, models.StorageFailure(op, fmt.Errorf("failed to insert entitlement: %w", err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, models.StorageFailure(op, fmt.Errorf("failed to read rows affected: %w", err))
	}

	ent := &models.Entitlement{}
	err = sqlx.GetContext(ctx, q.ext, ent, `
		SELECT id, account_id, file_id, amount_paid, created_at
		FROM entitlements WHERE account_id = ? AND file_id = ?
	`, accountID, fileID)
	if err != nil {
		return nil, false, models.StorageFailure(op, fmt.Errorf("failed to get entitlement: %w", err))
	}

	return ent, rows == 1, nil
}

// ListEntitlements returns one page of an account's download history,
// newest first.
func (q *queries) ListEntitlements(ctx context.Context, accountID string, page models.Page) ([]models.EntitlementView, error) {
	page = page.Normalize()

	var ents []models.EntitlementView
	err := sqlx.SelectContext(ctx, q.ext, &ents, `
		SELECT e.id, e.account_id, e.file_id, e.amount_paid, e.created_at,
		       f.original_name AS file_name, a.username AS uploader_name
		FROM entitlements e
		JOIN files f ON e.file_id = f.id
		JOIN accounts a ON f.owner_id = a.id
		WHERE e.account_id = ?
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT ? OFFSET ?
	`, accountID, page.Limit, page.Offset)
	if err != nil {
		return nil, models.StorageFailure("entitlements.list", fmt.Errorf("failed to list entitlements: %w", err))
	}
	return ents, nil
}

// CountEntitlements returns the number of files the account has settled.
func (q *queries) CountEntitlements(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, q.ext, &n,
		`SELECT COUNT(*) FROM entitlements WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, models.StorageFailure("entitlements.count", fmt.Errorf("failed to count entitlements: %w", err))
	}
	return n, nil
}
