package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a registered user and their point balance.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string `db:"id"`

	// Username is the login name (unique).
	Username string `db:"username"`

	// Email is the account's email address (unique).
	Email string `db:"email"`

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string `db:"password_hash"`

	// Balance is the current point balance. Never negative.
	// Only the ledger store mutates it.
	Balance int64 `db:"balance"`

	// CreatedAt is the Unix timestamp when the account was registered.
	CreatedAt int64 `db:"created_at"`
}

// NewAccount creates an account with a fresh ID and a zero balance.
// The starting balance is booked separately as a ledger transaction.
func NewAccount(username, email, passwordHash string) *Account {
	return &Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}
