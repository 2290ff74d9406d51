package models

// Entitlement records that an account has settled a download of a file.
// Its existence grants free re-download forever.
type Entitlement struct {
	ID         int64  `db:"id"`
	AccountID  string `db:"account_id"`
	FileID     string `db:"file_id"`
	AmountPaid int64  `db:"amount_paid"`
	CreatedAt  int64  `db:"created_at"`
}

// EntitlementView is an entitlement as shown in download history.
type EntitlementView struct {
	Entitlement
	FileName     string `db:"file_name"`
	UploaderName string `db:"uploader_name"`
}
