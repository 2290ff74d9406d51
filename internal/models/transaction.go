package models

// TransactionKind is the direction of a ledger transaction.
type TransactionKind string

const (
	KindEarn  TransactionKind = "earn"
	KindSpend TransactionKind = "spend"
)

// Valid reports whether k is a known transaction kind.
func (k TransactionKind) Valid() bool {
	return k == KindEarn || k == KindSpend
}

// Standard transaction descriptions.
const (
	DescSignupBonus  = "signup bonus"
	DescUploadBonus  = "upload bonus"
	DescFileDownload = "file download"
)

// Entry is a request to mutate a balance through the ledger.
type Entry struct {
	AccountID   string
	Kind        TransactionKind
	Amount      int64
	Description string

	// FileID optionally references the file that caused this entry.
	FileID string
}

// Transaction is a committed, immutable ledger row.
type Transaction struct {
	// ID is monotonic in commit order.
	ID int64 `db:"id"`

	AccountID   string          `db:"account_id"`
	Kind        TransactionKind `db:"kind"`
	Amount      int64           `db:"amount"`
	Description string          `db:"description"`

	// FileID is empty when the transaction does not reference a file.
	FileID string `db:"file_id"`

	// BalanceAfter is the account balance right after this transaction.
	BalanceAfter int64 `db:"balance_after"`

	CreatedAt int64 `db:"created_at"`
}

// TransactionView is a transaction as shown in history, with the
// referenced file's name resolved.
type TransactionView struct {
	Transaction
	FileName string `db:"file_name"`
}
