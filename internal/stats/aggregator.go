// Package stats derives read-only rollups from the ledger.
package stats

import (
	"context"
	"log/slog"

	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/storage"
)

// Aggregator computes account statistics and paginated histories.
// Every call reads from a single snapshot.
type Aggregator struct {
	store  storage.Store
	logger *slog.Logger
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(store storage.Store, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// GetStatistics returns the rollup for one account.
func (a *Aggregator) GetStatistics(ctx context.Context, accountID string) (*models.Statistics, error) {
	st := &models.Statistics{}
	err := a.store.ReadTx(ctx, func(r storage.Reader) error {
		var err error
		// Fails with NotFound for unknown accounts before any rollup runs.
		if st.CurrentBalance, err = r.GetBalance(ctx, accountID); err != nil {
			return err
		}
		if st.UploadedCount, err = r.CountActiveUploads(ctx, accountID); err != nil {
			return err
		}
		if st.DownloadedCount, err = r.CountEntitlements(ctx, accountID); err != nil {
			return err
		}
		if st.TotalDownloadsReceived, err = r.SumDownloadsReceived(ctx, accountID); err != nil {
			return err
		}
		if st.TotalEarned, err = r.SumTransactions(ctx, accountID, models.KindEarn); err != nil {
			return err
		}
		st.TotalSpent, err = r.SumTransactions(ctx, accountID, models.KindSpend)
		return err
	})
	if err != nil {
		a.logger.Error("GetStatistics failed", "account_id", accountID, "error", err)
		return nil, err
	}

	if st.TotalEarned-st.TotalSpent != st.CurrentBalance {
		a.logger.Error("Ledger conservation violated",
			"account_id", accountID,
			"total_earned", st.TotalEarned,
			"total_spent", st.TotalSpent,
			"balance", st.CurrentBalance,
		)
	}
	return st, nil
}

// GetTransactionHistory returns one page of the account's ledger, newest
// first, and the total number of rows.
func (a *Aggregator) GetTransactionHistory(ctx context.Context, accountID string, page models.Page) ([]models.TransactionView, int64, error) {
	var (
		txns  []models.TransactionView
		total int64
	)
	err := a.store.ReadTx(ctx, func(r storage.Reader) error {
		if _, err := r.GetAccount(ctx, accountID); err != nil {
			return err
		}
		var err error
		if txns, err = r.ListTransactions(ctx, accountID, page); err != nil {
			return err
		}
		total, err = r.CountTransactions(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// GetEntitlementHistory returns one page of the account's download
// history, newest first, and the total number of entitlements.
func (a *Aggregator) GetEntitlementHistory(ctx context.Context, accountID string, page models.Page) ([]models.EntitlementView, int64, error) {
	var (
		ents  []models.EntitlementView
		total int64
	)
	err := a.store.ReadTx(ctx, func(r storage.Reader) error {
		if _, err := r.GetAccount(ctx, accountID); err != nil {
			return err
		}
		var err error
		if ents, err = r.ListEntitlements(ctx, accountID, page); err != nil {
			return err
		}
		total, err = r.CountEntitlements(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return ents, total, nil
}
