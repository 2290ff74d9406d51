package models

// Statistics is a read-only rollup of one account's activity,
// taken from a single consistent snapshot.
type Statistics struct {
	// UploadedCount counts the account's active files.
	UploadedCount int64 `json:"uploaded_count"`

	// DownloadedCount counts the account's entitlements.
	DownloadedCount int64 `json:"downloaded_count"`

	// TotalDownloadsReceived sums download_count over the account's active files.
	TotalDownloadsReceived int64 `json:"total_downloads_received"`

	TotalEarned    int64 `json:"total_earned"`
	TotalSpent     int64 `json:"total_spent"`
	CurrentBalance int64 `json:"current_balance"`
}

// Page bounds a history query.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize applies the default and maximum limit and clamps the offset.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
