package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/honeyfile/internal/metrics"
	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/settlement"
	"github.com/mmynk/honeyfile/internal/storage"
	"github.com/mmynk/honeyfile/internal/storage/sqlite"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newCatalog(store storage.Store, cfg Config, m *metrics.Metrics) *Catalog {
	engine := settlement.NewEngine(store, settlement.Config{UploadBonus: 50}, m, discard)
	return New(store, engine, cfg, m, discard)
}

func createAccount(t *testing.T, store storage.Store, username string) string {
	t.Helper()
	account := models.NewAccount(username, username+"@example.com", "hash")
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatal(err)
	}
	return account.ID
}

func price(p int64) *int64 { return &p }

func TestValidate(t *testing.T) {
	c := New(nil, nil, Config{
		MaxFileSizeMB:     1,
		AllowedExtensions: []string{".MP4", " pdf", ""},
	}, metrics.New(nil), discard)

	tests := []struct {
		name    string
		upload  Upload
		wantErr bool
	}{
		{"valid", Upload{Name: "clip.mp4", Size: 1024}, false},
		{"extension case-insensitive", Upload{Name: "paper.PDF", Size: 1}, false},
		{"empty name", Upload{Name: "  ", Size: 1}, true},
		{"disallowed extension", Upload{Name: "setup.exe", Size: 1}, true},
		{"too large", Upload{Name: "big.mp4", Size: 2 * 1024 * 1024}, true},
		{"negative size", Upload{Name: "x.mp4", Size: -1}, true},
		{"negative price", Upload{Name: "x.mp4", Size: 1, Price: price(-1)}, true},
		{"free", Upload{Name: "x.mp4", Size: 1, Price: price(0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.upload)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidUpload) {
					t.Errorf("expected ErrInvalidUpload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPublish(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	c := newCatalog(store, Config{DefaultPrice: 10}, metrics.New(nil))
	owner := createAccount(t, store, "owner")

	t.Run("default price and bonus", func(t *testing.T) {
		file, txn, err := c.Publish(ctx, Upload{OwnerID: owner, Name: "movie.mkv", Size: 4096})
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		if file.Price != 10 || file.Category != "video" || !file.Active {
			t.Errorf("unexpected file: %+v", file)
		}
		if txn.Amount != 50 || txn.FileID != file.ID || txn.Description != models.DescUploadBonus {
			t.Errorf("unexpected transaction: %+v", txn)
		}
	})

	t.Run("declared price wins", func(t *testing.T) {
		file, _, err := c.Publish(ctx, Upload{OwnerID: owner, Name: "free.txt", Size: 1, Price: price(0)})
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		if file.Price != 0 || file.Category != "document" {
			t.Errorf("unexpected file: %+v", file)
		}
	})

	t.Run("unknown owner", func(t *testing.T) {
		_, _, err := c.Publish(ctx, Upload{OwnerID: "missing", Name: "x.zip", Size: 1})
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	balance, _ := store.GetBalance(ctx, owner)
	if balance != 100 {
		t.Errorf("owner balance = %d, want 100", balance)
	}
}

// brokenTxStore fails every unit of work but lets single statements through.
type brokenTxStore struct {
	storage.Store
}

func (brokenTxStore) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return models.StorageFailure("test.commit", errors.New("database is locked"))
}

func TestPublish_RollsBackWhenBonusFails(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	m := metrics.New(nil)
	c := newCatalog(brokenTxStore{store}, Config{DefaultPrice: 10}, m)
	owner := createAccount(t, store, "owner")

	_, _, err := c.Publish(ctx, Upload{OwnerID: owner, Name: "song.mp3", Size: 10})
	if !errors.Is(err, models.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}

	files, total, err := store.ListFiles(ctx, storage.FileFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(files) != 0 {
		t.Errorf("active files = %d, want 0 after rollback", total)
	}
	if balance, _ := store.GetBalance(ctx, owner); balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
	if got := testutil.ToFloat64(m.UploadRollbacks); got != 1 {
		t.Errorf("upload rollbacks = %v, want 1", got)
	}
}

func TestGetListDeactivate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	c := newCatalog(store, Config{DefaultPrice: 10}, metrics.New(nil))
	owner := createAccount(t, store, "owner")
	other := createAccount(t, store, "other")

	video, _, err := c.Publish(ctx, Upload{OwnerID: owner, Name: "a.mp4", Size: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Publish(ctx, Upload{OwnerID: owner, Name: "b.png", Size: 1}); err != nil {
		t.Fatal(err)
	}

	t.Run("List by category", func(t *testing.T) {
		files, total, err := c.List(ctx, storage.FileFilter{Category: "image"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if total != 1 || files[0].OriginalName != "b.png" {
			t.Errorf("got total=%d %+v", total, files)
		}
	})

	t.Run("non-owner cannot deactivate", func(t *testing.T) {
		err := c.Deactivate(ctx, video.ID, other)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := c.Get(ctx, video.ID); err != nil {
			t.Errorf("file should still be visible: %v", err)
		}
	})

	t.Run("owner deactivates", func(t *testing.T) {
		if err := c.Deactivate(ctx, video.ID, owner); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		if _, err := c.Get(ctx, video.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Get after deactivate: expected ErrNotFound, got %v", err)
		}
		if err := c.Deactivate(ctx, video.ID, owner); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("second Deactivate: expected ErrNotFound, got %v", err)
		}
		_, total, _ := c.List(ctx, storage.FileFilter{})
		if total != 1 {
			t.Errorf("total = %d, want 1", total)
		}
	})
}
