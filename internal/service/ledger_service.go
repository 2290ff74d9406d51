package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/honeyfile/internal/auth"
	"github.com/mmynk/honeyfile/internal/middleware"
	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/settlement"
	"github.com/mmynk/honeyfile/internal/stats"
)

// LedgerService exposes balances, download settlement and statistics.
// Every call acts on the account carried in the request context.
type LedgerService struct {
	engine *settlement.Engine
	stats  *stats.Aggregator
	logger *slog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(engine *settlement.Engine, aggregator *stats.Aggregator, logger *slog.Logger) *LedgerService {
	return &LedgerService{engine: engine, stats: aggregator, logger: logger}
}

func requireAccount(ctx context.Context) (string, error) {
	accountID := middleware.GetAccountID(ctx)
	if accountID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return accountID, nil
}

// GetBalance returns the caller's balance.
func (s *LedgerService) GetBalance(ctx context.Context, req *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error) {
	accountID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.engine.GetBalance(ctx, accountID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetBalanceResponse{Balance: balance}), nil
}

// SettleDownload settles the caller's download of a file.
func (s *LedgerService) SettleDownload(ctx context.Context, req *connect.Request[SettleDownloadRequest]) (*connect.Response[SettleDownloadResponse], error) {
	accountID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.FileID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("file_id required"))
	}

	res, err := s.engine.SettleDownload(ctx, accountID, req.Msg.FileID)
	if err != nil {
		return nil, connectError(err)
	}

	balance, err := s.engine.GetBalance(ctx, accountID)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&SettleDownloadResponse{
		PricePaid:    res.PricePaid,
		AlreadyOwned: res.AlreadyOwned,
		Owner:        res.Owner,
		Balance:      balance,
	}), nil
}

// GetStatistics returns the caller's rollup.
func (s *LedgerService) GetStatistics(ctx context.Context, req *connect.Request[GetStatisticsRequest]) (*connect.Response[GetStatisticsResponse], error) {
	accountID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.stats.GetStatistics(ctx, accountID)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&GetStatisticsResponse{
		UploadedCount:          st.UploadedCount,
		DownloadedCount:        st.DownloadedCount,
		TotalDownloadsReceived: st.TotalDownloadsReceived,
		TotalEarned:            st.TotalEarned,
		TotalSpent:             st.TotalSpent,
		CurrentBalance:         st.CurrentBalance,
	}), nil
}

// GetTransactionHistory returns one page of the caller's ledger.
func (s *LedgerService) GetTransactionHistory(ctx context.Context, req *connect.Request[HistoryRequest]) (*connect.Response[TransactionHistoryResponse], error) {
	accountID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	txns, total, err := s.stats.GetTransactionHistory(ctx, accountID, models.Page{
		Limit:  req.Msg.Limit,
		Offset: req.Msg.Offset,
	})
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]TransactionInfo, len(txns))
	for i, t := range txns {
		out[i] = TransactionInfo{
			ID:           t.ID,
			Kind:         string(t.Kind),
			Amount:       t.Amount,
			Description:  t.Description,
			FileID:       t.FileID,
			FileName:     t.FileName,
			BalanceAfter: t.BalanceAfter,
			CreatedAt:    t.CreatedAt,
		}
	}

	return connect.NewResponse(&TransactionHistoryResponse{
		Transactions: out,
		TotalCount:   total,
	}), nil
}

// GetEntitlementHistory returns one page of the caller's download history.
func (s *LedgerService) GetEntitlementHistory(ctx context.Context, req *connect.Request[HistoryRequest]) (*connect.Response[EntitlementHistoryResponse], error) {
	accountID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	ents, total, err := s.stats.GetEntitlementHistory(ctx, accountID, models.Page{
		Limit:  req.Msg.Limit,
		Offset: req.Msg.Offset,
	})
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]EntitlementInfo, len(ents))
	for i, e := range ents {
		out[i] = EntitlementInfo{
			FileID:       e.FileID,
			FileName:     e.FileName,
			UploaderName: e.UploaderName,
			AmountPaid:   e.AmountPaid,
			CreatedAt:    e.CreatedAt,
		}
	}

	return connect.NewResponse(&EntitlementHistoryResponse{
		Entitlements: out,
		TotalCount:   total,
	}), nil
}
