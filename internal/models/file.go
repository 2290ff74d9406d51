package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileRecord is the metadata of an uploaded file.
// The file bytes themselves live outside the ledger.
type FileRecord struct {
	// ID is a random UUID, not a content hash.
	ID string `db:"id"`

	// OwnerID is the account that uploaded the file.
	// The owner is never charged for their own file.
	OwnerID string `db:"owner_id"`

	OriginalName string `db:"original_name"`
	Category     string `db:"category"`
	Size         int64  `db:"size"`

	// Price is the number of points a first download costs.
	Price int64 `db:"price"`

	// DownloadCount counts paid (or free-granted) first downloads only.
	DownloadCount int64 `db:"download_count"`

	Active    bool  `db:"active"`
	CreatedAt int64 `db:"created_at"`
}

// NewFileRecord creates an active file record with a fresh ID.
func NewFileRecord(ownerID, name string, size, price int64) *FileRecord {
	return &FileRecord{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		OriginalName: name,
		Category:     CategoryFor(name),
		Size:         size,
		Price:        price,
		Active:       true,
		CreatedAt:    time.Now().Unix(),
	}
}

// CategoryOther is used for extensions without a known category.
const CategoryOther = "other"

var categoryByExt = map[string]string{
	"mp4": "video", "avi": "video", "mkv": "video", "mov": "video", "wmv": "video",
	"jpg": "image", "jpeg": "image", "png": "image", "gif": "image",
	"pdf": "document", "txt": "document", "docx": "document", "xlsx": "document",
	"zip": "software", "rar": "software", "7z": "software", "exe": "software",
	"mp3": "music", "wav": "music", "flac": "music",
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// CategoryFor maps a file name to its catalog category.
func CategoryFor(name string) string {
	if c, ok := categoryByExt[Extension(name)]; ok {
		return c
	}
	return CategoryOther
}
