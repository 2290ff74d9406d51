package service

import "github.com/mmynk/honeyfile/internal/models"

// AccountInfo is the public view of an account.
type AccountInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Balance   int64  `json:"balance"`
	CreatedAt int64  `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is returned by Register and Login.
type SessionResponse struct {
	Account AccountInfo `json:"account"`
	Token   string      `json:"token"`
}

type GetBalanceRequest struct{}

type GetBalanceResponse struct {
	Balance int64 `json:"balance"`
}

type SettleDownloadRequest struct {
	FileID string `json:"file_id"`
}

type SettleDownloadResponse struct {
	PricePaid    int64 `json:"price_paid"`
	AlreadyOwned bool  `json:"already_owned"`
	Owner        bool  `json:"owner"`
	Balance      int64 `json:"balance"`
}

type GetStatisticsRequest struct{}

type GetStatisticsResponse struct {
	UploadedCount          int64 `json:"uploaded_count"`
	DownloadedCount        int64 `json:"downloaded_count"`
	TotalDownloadsReceived int64 `json:"total_downloads_received"`
	TotalEarned            int64 `json:"total_earned"`
	TotalSpent             int64 `json:"total_spent"`
	CurrentBalance         int64 `json:"current_balance"`
}

type HistoryRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type TransactionInfo struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	Amount       int64  `json:"amount"`
	Description  string `json:"description"`
	FileID       string `json:"file_id,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	BalanceAfter int64  `json:"balance_after"`
	CreatedAt    int64  `json:"created_at"`
}

type TransactionHistoryResponse struct {
	Transactions []TransactionInfo `json:"transactions"`
	TotalCount   int64             `json:"total_count"`
}

type EntitlementInfo struct {
	FileID       string `json:"file_id"`
	FileName     string `json:"file_name"`
	UploaderName string `json:"uploader_name"`
	AmountPaid   int64  `json:"amount_paid"`
	CreatedAt    int64  `json:"created_at"`
}

type EntitlementHistoryResponse struct {
	Entitlements []EntitlementInfo `json:"entitlements"`
	TotalCount   int64             `json:"total_count"`
}

type FileInfo struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Size          int64  `json:"size"`
	Price         int64  `json:"price"`
	DownloadCount int64  `json:"download_count"`
	CreatedAt     int64  `json:"created_at"`
}

type PublishFileRequest struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	// Price falls back to the configured download cost when omitted.
	Price *int64 `json:"price,omitempty"`
}

type PublishFileResponse struct {
	File         FileInfo `json:"file"`
	BonusAwarded int64    `json:"bonus_awarded"`
	Balance      int64    `json:"balance"`
}

type GetFileRequest struct {
	FileID string `json:"file_id"`
}

type GetFileResponse struct {
	File FileInfo `json:"file"`
}

type ListFilesRequest struct {
	Category string `json:"category"`
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

type ListFilesResponse struct {
	Files      []FileInfo `json:"files"`
	TotalCount int64      `json:"total_count"`
}

type DeleteFileRequest struct {
	FileID string `json:"file_id"`
}

type DeleteFileResponse struct{}

func toAccountInfo(a *models.Account) AccountInfo {
	return AccountInfo{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

func toFileInfo(f *models.FileRecord) FileInfo {
	return FileInfo{
		ID:            f.ID,
		OwnerID:       f.OwnerID,
		Name:          f.OriginalName,
		Category:      f.Category,
		Size:          f.Size,
		Price:         f.Price,
		DownloadCount: f.DownloadCount,
		CreatedAt:     f.CreatedAt,
	}
}
