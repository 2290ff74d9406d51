package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/storage"
)

const fileColumns = `id, owner_id, original_name, category, size, price, download_count, active, created_at`

// CreateFile persists a new file record.
func (q *queries) CreateFile(ctx context.Context, file *models.FileRecord) error {
	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO files (id, owner_id, original_name, category, size, price, download_count, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
	`,
		file.ID, file.OwnerID, file.OriginalName, file.Category,
		file.Size, file.Price, file.Active, file.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return models.NotFound("files.create", file.OwnerID, file.ID)
		}
		return models.StorageFailure("files.create", fmt.Errorf("failed to insert file: %w", err))
	}
	file.DownloadCount = 0
	return nil
}

// GetFile retrieves a file record by ID, active or not.
func (q *queries) GetFile(ctx context.Context, fileID string) (*models.FileRecord, error) {
	file := &models.FileRecord{}
	err := sqlx.GetContext(ctx, q.ext, file,
		`SELECT `+fileColumns+` FROM files WHERE id = ?`, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("files.get", "", fileID)
	}
	if err != nil {
		return nil, models.StorageFailure("files.get", fmt.Errorf("failed to get file: %w", err))
	}
	return file, nil
}

// SetFileActive flips the active flag of a file record.
func (q *queries) SetFileActive(ctx context.Context, fileID string, active bool) error {
	res, err := q.ext.ExecContext(ctx,
		`UPDATE files SET active = ? WHERE id = ?`, active, fileID)
	if err != nil {
		return models.StorageFailure("files.set_active", fmt.Errorf("failed to update file: %w", err))
	}
	return requireRow(res, models.NotFound("files.set_active", "", fileID))
}

// IncrementDownloadCount bumps the popularity counter of a file by one.
func (q *queries) IncrementDownloadCount(ctx context.Context, fileID string) error {
	res, err := q.ext.ExecContext(ctx,
		`UPDATE files SET download_count = download_count + 1 WHERE id = ?`, fileID)
	if err != nil {
		return models.StorageFailure("files.increment", fmt.Errorf("failed to increment download count: %w", err))
	}
	return requireRow(res, models.NotFound("files.increment", "", fileID))
}

// CountActiveUploads counts the account's active files.
func (q *queries) CountActiveUploads(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, q.ext, &n,
		`SELECT COUNT(*) FROM files WHERE owner_id = ? AND active = 1`, accountID)
	if err != nil {
		return 0, models.StorageFailure("files.count_uploads", fmt.Errorf("failed to count uploads: %w", err))
	}
	return n, nil
}

// SumDownloadsReceived totals download_count over the account's active files.
func (q *queries) SumDownloadsReceived(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, q.ext, &n, `
		SELECT COALESCE(SUM(download_count), 0) FROM files
		WHERE owner_id = ? AND active = 1
	`, accountID)
	if err != nil {
		return 0, models.StorageFailure("files.sum_downloads", fmt.Errorf("failed to sum downloads: %w", err))
	}
	return n, nil
}

// ListFiles returns one page of active files matching the filter.
func (q *queries) ListFiles(ctx context.Context, filter storage.FileFilter) ([]*models.FileRecord, int64, error) {
	const op = "files.list"
	page := filter.Page.Normalize()

	where := []string{"active = 1"}
	var args []interface{}
	if filter.Category != "" && filter.Category != "all" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Query != "" {
		where = append(where, "original_name LIKE ?")
		args = append(args, "%"+filter.Query+"%")
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := sqlx.GetContext(ctx, q.ext, &total,
		`SELECT COUNT(*) FROM files WHERE `+clause, args...); err != nil {
		return nil, 0, models.StorageFailure(op, fmt.Errorf("failed to count files: %w", err))
	}

	var files []*models.FileRecord
	err := sqlx.SelectContext(ctx, q.ext, &files,
		`SELECT `+fileColumns+` FROM files WHERE `+clause+`
		 ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, models.StorageFailure(op, fmt.Errorf("failed to list files: %w", err))
	}

	return files, total, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return models.StorageFailure("rows_affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
