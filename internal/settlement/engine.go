// Package settlement moves points for downloads and uploads.
//
// A download settles through the states
//
//	REQUESTED → ENTITLEMENT_CHECKED → {FREE_GRANT | CHARGED} → RECORDED → DONE
//
// with FAILED reachable from every charging step. The entitlement check,
// the debit, the entitlement row and the download counter all happen in one
// storage unit of work, so concurrent settlements of the same pair charge
// at most once.
package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/honeyfile/internal/metrics"
	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/storage"
)

// State is a step of the download settlement state machine.
type State string

const (
	StateRequested          State = "REQUESTED"
	StateEntitlementChecked State = "ENTITLEMENT_CHECKED"
	StateFreeGrant          State = "FREE_GRANT"
	StateCharged            State = "CHARGED"
	StateRecorded           State = "RECORDED"
	StateDone               State = "DONE"
	StateFailed             State = "FAILED"
)

// Result is the outcome of a download settlement.
type Result struct {
	// PricePaid is zero unless this call created the entitlement.
	PricePaid int64

	// AlreadyOwned is true when no new entitlement was needed: the
	// account owns the file or paid for it before.
	AlreadyOwned bool

	// Owner is true when the account uploaded the file.
	Owner bool

	// Path is StateCharged or StateFreeGrant for new settlements and
	// empty otherwise.
	Path State

	// State is the terminal state, StateDone on success.
	State State
}

// Config holds the point amounts the engine applies.
type Config struct {
	// UploadBonus is credited for every successful upload. Must be > 0.
	UploadBonus int64

	// StorageRetries is how many times a settlement that failed with a
	// storage failure is re-run. Nothing persists from a failed unit.
	StorageRetries int
}

// Engine settles downloads and upload bonuses against a ledger store.
type Engine struct {
	store   storage.Store
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine creates a settlement engine.
func NewEngine(store storage.Store, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Engine {
	if cfg.StorageRetries < 0 {
		cfg.StorageRetries = 0
	}
	return &Engine{
		store:   store,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// GetBalance returns the account's current balance.
func (e *Engine) GetBalance(ctx context.Context, accountID string) (int64, error) {
	return e.store.GetBalance(ctx, accountID)
}

// SettleDownload charges accountID for fileID unless the account owns the
// file or already holds an entitlement for it.
func (e *Engine) SettleDownload(ctx context.Context, accountID, fileID string) (*Result, error) {
	start := time.Now()
	defer func() {
		e.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}()

	log := e.logger.With("account_id", accountID, "file_id", fileID)

	var (
		res *Result
		err error
	)
	for attempt := 0; ; attempt++ {
		res, err = e.settleOnce(ctx, log, accountID, fileID)
		if models.KindOf(err) != models.KindStorageFailure || attempt >= e.cfg.StorageRetries || ctx.Err() != nil {
			break
		}
		log.Warn("Settlement storage failure, retrying", "attempt", attempt+1, "error", err)
	}

	outcome := outcomeOf(res, err)
	e.metrics.Settlements.WithLabelValues(outcome).Inc()

	if err != nil {
		switch models.KindOf(err) {
		case models.KindInsufficientFunds:
			log.Warn("Download rejected", "reason", outcome, "error", err)
		case models.KindNotFound:
			log.Info("Download rejected", "reason", outcome, "error", err)
		default:
			log.Error("Settlement failed", "error", err)
		}
		return nil, err
	}

	if res.PricePaid > 0 {
		e.metrics.Points.WithLabelValues(string(models.KindSpend)).Add(float64(res.PricePaid))
	}
	log.Info("Download settled", "outcome", outcome, "price_paid", res.PricePaid)
	return res, nil
}

func (e *Engine) settleOnce(ctx context.Context, log *slog.Logger, accountID, fileID string) (*Result, error) {
	const op = "settlement.download"

	res := &Result{}
	advance := func(s State) {
		res.State = s
		log.Debug("Settlement state", "state", s)
	}
	advance(StateRequested)

	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		file, err := tx.GetFile(ctx, fileID)
		if err != nil {
			return err
		}
		if !file.Active {
			return models.NotFound(op, accountID, fileID)
		}

		balance, err := tx.GetBalance(ctx, accountID)
		if err != nil {
			return err
		}

		// Self-access is free and leaves no history.
		if file.OwnerID == accountID {
			res.Owner = true
			res.AlreadyOwned = true
			return nil
		}

		owned, err := tx.HasEntitlement(ctx, accountID, fileID)
		if err != nil {
			return err
		}
		advance(StateEntitlementChecked)
		if owned {
			res.AlreadyOwned = true
			return nil
		}

		price := file.Price
		if price > 0 {
			if balance < price {
				return models.InsufficientFunds(op, accountID, fileID, price, balance)
			}
			if _, err := tx.Apply(ctx, models.Entry{
				AccountID:   accountID,
				Kind:        models.KindSpend,
				Amount:      price,
				Description: models.DescFileDownload,
				FileID:      fileID,
			}); err != nil {
				return err
			}
			res.Path = StateCharged
		} else {
			res.Path = StateFreeGrant
		}
		advance(res.Path)

		_, created, err := tx.Grant(ctx, accountID, fileID, price)
		if err != nil {
			return err
		}
		if !created {
			return models.StorageFailure(op, errors.New("entitlement appeared inside settlement unit"))
		}
		if err := tx.IncrementDownloadCount(ctx, fileID); err != nil {
			return err
		}
		advance(StateRecorded)

		res.PricePaid = price
		return nil
	})
	if err != nil {
		advance(StateFailed)
		return nil, err
	}

	advance(StateDone)
	return res, nil
}

// SettleUploadBonus credits the configured upload bonus to the owner of a
// freshly stored file. The file must exist and belong to accountID.
func (e *Engine) SettleUploadBonus(ctx context.Context, accountID, fileID string) (*models.Transaction, error) {
	const op = "settlement.upload_bonus"
	log := e.logger.With("account_id", accountID, "file_id", fileID)

	var txn *models.Transaction
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		file, err := tx.GetFile(ctx, fileID)
		if err != nil {
			return err
		}
		if file.OwnerID != accountID {
			return models.NotFound(op, accountID, fileID)
		}

		txn, err = tx.Apply(ctx, models.Entry{
			AccountID:   accountID,
			Kind:        models.KindEarn,
			Amount:      e.cfg.UploadBonus,
			Description: models.DescUploadBonus,
			FileID:      fileID,
		})
		return err
	})
	if err != nil {
		log.Error("Upload bonus failed", "error", err)
		return nil, err
	}

	e.metrics.Points.WithLabelValues(string(models.KindEarn)).Add(float64(txn.Amount))
	log.Info("Upload bonus credited", "amount", txn.Amount, "balance", txn.BalanceAfter)
	return txn, nil
}

func outcomeOf(res *Result, err error) string {
	switch {
	case err != nil:
		switch models.KindOf(err) {
		case models.KindInsufficientFunds:
			return metrics.OutcomeInsufficientFunds
		case models.KindNotFound:
			return metrics.OutcomeNotFound
		default:
			return metrics.OutcomeFailed
		}
	case res.Owner:
		return metrics.OutcomeOwner
	case res.AlreadyOwned:
		return metrics.OutcomeEntitled
	case res.Path == StateFreeGrant:
		return metrics.OutcomeFreeGrant
	default:
		return metrics.OutcomeCharged
	}
}
