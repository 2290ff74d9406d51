package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/honeyfile/internal/models"
	"github.com/mmynk/honeyfile/internal/storage"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrAccountExists       = errors.New("username or email already registered")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// AccountStorage defines the persistence operations the authenticator needs.
// Registration runs inside a unit of work so the account row and its
// signup-bonus ledger row commit together.
type AccountStorage interface {
	InTx(ctx context.Context, fn func(tx storage.Tx) error) error
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
}

type registration struct {
	Username string `validate:"required,min=3,max=32,alphanum"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage       AccountStorage
	initialPoints int64
	validate      *validator.Validate
}

// NewPasswordAuthenticator creates a new password-based authenticator.
// initialPoints is credited to every new account.
func NewPasswordAuthenticator(storage AccountStorage, initialPoints int64) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage:       storage,
		initialPoints: initialPoints,
		validate:      validator.New(),
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 6 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new account with a hashed password and books the
// signup points as its first ledger transaction.
func (a *PasswordAuthenticator) Register(ctx context.Context, username, email, credential string) (*models.Account, error) {
	// Validate password strength
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	reg := registration{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: credential,
	}
	if err := a.validate.Struct(reg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.NewAccount(reg.Username, reg.Email, string(hashedPassword))

	err = a.storage.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateAccount(ctx, account); err != nil {
			return err
		}
		if a.initialPoints <= 0 {
			return nil
		}
		txn, err := tx.Apply(ctx, models.Entry{
			AccountID:   account.ID,
			Kind:        models.KindEarn,
			Amount:      a.initialPoints,
			Description: models.DescSignupBonus,
		})
		if err != nil {
			return err
		}
		account.Balance = txn.BalanceAfter
		return nil
	})
	if errors.Is(err, storage.ErrConflict) {
		return nil, ErrAccountExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Authenticate verifies the username and password, returning the account if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.Account, error) {
	account, err := a.storage.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Compare password hash
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}
