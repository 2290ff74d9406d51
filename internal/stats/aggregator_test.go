package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mmynk/honeyfile/internal/metrics"
	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/settlement"
	"github.com/mmynk/honeyfile/internal/storage/sqlite"
)

func setup(t *testing.T) (*sqlite.SQLiteStore, *settlement.Engine, *Aggregator) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := settlement.NewEngine(store, settlement.Config{UploadBonus: 50}, metrics.New(nil), logger)
	return store, engine, NewAggregator(store, logger)
}

func signup(t *testing.T, store *sqlite.SQLiteStore, username string) string {
	t.Helper()
	ctx := context.Background()
	account := models.NewAccount(username, username+"@example.com", "hash")
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Apply(ctx, models.Entry{
		AccountID: account.ID, Kind: models.KindEarn, Amount: 1000, Description: models.DescSignupBonus,
	}); err != nil {
		t.Fatal(err)
	}
	return account.ID
}

func upload(t *testing.T, store *sqlite.SQLiteStore, engine *settlement.Engine, owner, name string, price int64) string {
	t.Helper()
	ctx := context.Background()
	file := models.NewFileRecord(owner, name, 100, price)
	if err := store.CreateFile(ctx, file); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.SettleUploadBonus(ctx, owner, file.ID); err != nil {
		t.Fatal(err)
	}
	return file.ID
}

func TestGetStatistics(t *testing.T) {
	store, engine, agg := setup(t)
	ctx := context.Background()

	alice := signup(t, store, "alice")
	bob := signup(t, store, "bob")
	carol := signup(t, store, "carol")

	video := upload(t, store, engine, alice, "talk.mp4", 10)
	paper := upload(t, store, engine, alice, "paper.pdf", 20)
	retired := upload(t, store, engine, alice, "old.zip", 5)

	for _, step := range []struct{ account, file string }{
		{bob, video}, {bob, paper}, {carol, video}, {bob, video}, {bob, retired},
	} {
		if _, err := engine.SettleDownload(ctx, step.account, step.file); err != nil {
			t.Fatalf("SettleDownload failed: %v", err)
		}
	}
	if err := store.SetFileActive(ctx, retired, false); err != nil {
		t.Fatal(err)
	}

	t.Run("uploader", func(t *testing.T) {
		st, err := agg.GetStatistics(ctx, alice)
		if err != nil {
			t.Fatalf("GetStatistics failed: %v", err)
		}
		want := models.Statistics{
			UploadedCount:          2,
			DownloadedCount:        0,
			TotalDownloadsReceived: 3,
			TotalEarned:            1150,
			TotalSpent:             0,
			CurrentBalance:         1150,
		}
		if *st != want {
			t.Errorf("got %+v, want %+v", *st, want)
		}
	})

	t.Run("downloader", func(t *testing.T) {
		st, err := agg.GetStatistics(ctx, bob)
		if err != nil {
			t.Fatalf("GetStatistics failed: %v", err)
		}
		want := models.Statistics{
			UploadedCount:          0,
			DownloadedCount:        3,
			TotalDownloadsReceived: 0,
			TotalEarned:            1000,
			TotalSpent:             35,
			CurrentBalance:         965,
		}
		if *st != want {
			t.Errorf("got %+v, want %+v", *st, want)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := agg.GetStatistics(ctx, "missing")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestHistories(t *testing.T) {
	store, engine, agg := setup(t)
	ctx := context.Background()

	alice := signup(t, store, "alice")
	bob := signup(t, store, "bob")

	var files []string
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		files = append(files, upload(t, store, engine, alice, name, 10))
	}
	for _, f := range files {
		if _, err := engine.SettleDownload(ctx, bob, f); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("transaction history", func(t *testing.T) {
		txns, total, err := agg.GetTransactionHistory(ctx, bob, models.Page{Limit: 2})
		if err != nil {
			t.Fatalf("GetTransactionHistory failed: %v", err)
		}
		if total != 4 {
			t.Errorf("total = %d, want 4", total)
		}
		if len(txns) != 2 {
			t.Fatalf("len = %d, want 2", len(txns))
		}
		if txns[0].Kind != models.KindSpend || txns[0].FileName != "c.mp3" {
			t.Errorf("newest = %+v, want spend on c.mp3", txns[0])
		}
		if txns[0].BalanceAfter != 970 {
			t.Errorf("newest BalanceAfter = %d, want 970", txns[0].BalanceAfter)
		}
	})

	t.Run("entitlement history", func(t *testing.T) {
		ents, total, err := agg.GetEntitlementHistory(ctx, bob, models.Page{})
		if err != nil {
			t.Fatalf("GetEntitlementHistory failed: %v", err)
		}
		if total != 3 || len(ents) != 3 {
			t.Fatalf("total=%d len=%d, want 3", total, len(ents))
		}
		for _, e := range ents {
			if e.UploaderName != "alice" || e.AmountPaid != 10 {
				t.Errorf("unexpected entitlement: %+v", e)
			}
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		if _, _, err := agg.GetTransactionHistory(ctx, "missing", models.Page{}); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("transactions: expected ErrNotFound, got %v", err)
		}
		if _, _, err := agg.GetEntitlementHistory(ctx, "missing", models.Page{}); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("entitlements: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		ents, total, err := agg.GetEntitlementHistory(ctx, alice, models.Page{})
		if err != nil || total != 0 || len(ents) != 0 {
			t.Errorf("got %v, %d, %v; want empty", ents, total, err)
		}
	})
}
