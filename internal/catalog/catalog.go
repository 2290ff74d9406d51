// Package catalog manages file records: the collaborator that stores
// upload metadata and triggers the upload bonus.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mmynk/honeyfile/internal/metrics"
	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/settlement"
	"github.com/mmynk/honeyfile/internal/storage"
)

// ErrInvalidUpload is returned when an upload fails validation.
var ErrInvalidUpload = errors.New("invalid upload")

// Config controls upload validation.
type Config struct {
	// DefaultPrice is used when an upload does not declare a price.
	DefaultPrice int64

	// MaxFileSizeMB caps the declared file size. Zero disables the check.
	MaxFileSizeMB int64

	// AllowedExtensions lists accepted extensions without the dot.
	// Empty allows everything.
	AllowedExtensions []string
}

// Upload describes a file that has been durably stored and now needs a
// record and its bonus.
type Upload struct {
	OwnerID string
	Name    string
	Size    int64

	// Price overrides Config.DefaultPrice when set.
	Price *int64
}

// Catalog creates, lists and deactivates file records.
type Catalog struct {
	store   storage.Store
	engine  *settlement.Engine
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Catalog.
func New(store storage.Store, engine *settlement.Engine, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Catalog {
	exts := make([]string, 0, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	cfg.AllowedExtensions = exts

	return &Catalog{
		store:   store,
		engine:  engine,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// Validate checks an upload against the configured limits.
func (c *Catalog) Validate(u Upload) error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: file name required", ErrInvalidUpload)
	}
	if len(c.cfg.AllowedExtensions) > 0 && !slices.Contains(c.cfg.AllowedExtensions, models.Extension(u.Name)) {
		return fmt.Errorf("%w: file type %q not allowed", ErrInvalidUpload, models.Extension(u.Name))
	}
	if u.Size < 0 {
		return fmt.Errorf("%w: negative size", ErrInvalidUpload)
	}
	if c.cfg.MaxFileSizeMB > 0 && u.Size > c.cfg.MaxFileSizeMB*1024*1024 {
		return fmt.Errorf("%w: file exceeds %dMB", ErrInvalidUpload, c.cfg.MaxFileSizeMB)
	}
	if u.Price != nil && *u.Price < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidUpload)
	}
	return nil
}

// Publish records an upload and credits the owner's upload bonus. If the
// bonus cannot be credited the record is deactivated again, so every active
// file's owner was credited exactly once.
func (c *Catalog) Publish(ctx context.Context, u Upload) (*models.FileRecord, *models.Transaction, error) {
	if err := c.Validate(u); err != nil {
		return nil, nil, err
	}

	price := c.cfg.DefaultPrice
	if u.Price != nil {
		price = *u.Price
	}

	file := models.NewFileRecord(u.OwnerID, u.Name, u.Size, price)
	if err := c.store.CreateFile(ctx, file); err != nil {
		c.logger.Error("CreateFile failed", "owner_id", u.OwnerID, "error", err)
		return nil, nil, err
	}

	txn, err := c.engine.SettleUploadBonus(ctx, u.OwnerID, file.ID)
	if err != nil {
		c.metrics.UploadRollbacks.Inc()
		// The rollback must run even if the request context is done.
		if rerr := c.store.SetFileActive(context.WithoutCancel(ctx), file.ID, false); rerr != nil {
			c.logger.Error("Upload rollback failed", "file_id", file.ID, "error", rerr)
			return nil, nil, errors.Join(err, rerr)
		}
		c.logger.Warn("Upload rolled back", "file_id", file.ID, "error", err)
		return nil, nil, err
	}

	c.logger.Info("File published",
		"file_id", file.ID,
		"owner_id", file.OwnerID,
		"category", file.Category,
		"price", file.Price,
	)
	return file, txn, nil
}

// Get returns an active file record.
func (c *Catalog) Get(ctx context.Context, fileID string) (*models.FileRecord, error) {
	file, err := c.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !file.Active {
		return nil, models.NotFound("catalog.get", "", fileID)
	}
	return file, nil
}

// List returns one page of active files and the total match count.
func (c *Catalog) List(ctx context.Context, filter storage.FileFilter) ([]*models.FileRecord, int64, error) {
	return c.store.ListFiles(ctx, filter)
}

// Deactivate hides a file from the catalog. Only the owner may do this;
// other requesters get NotFound. Entitlements and counters are kept.
func (c *Catalog) Deactivate(ctx context.Context, fileID, requesterID string) error {
	const op = "catalog.deactivate"

	err := c.store.InTx(ctx, func(tx storage.Tx) error {
		file, err := tx.GetFile(ctx, fileID)
		if err != nil {
			return err
		}
		if !file.Active || file.OwnerID != requesterID {
			return models.NotFound(op, requesterID, fileID)
		}
		return tx.SetFileActive(ctx, fileID, false)
	})
	if err != nil {
		return err
	}

	c.logger.Info("File deactivated", "file_id", fileID, "owner_id", requesterID)
	return nil
}
