package auth

import (
	"context"

	"github.com/mmynk/honeyfile/internal/models"
)

// Authenticator creates and verifies accounts. The service layer only sees
// this interface; PasswordAuthenticator is the bcrypt implementation.
type Authenticator interface {
	// Register creates an account and books its signup points as an earn
	// transaction in the same unit of work.
	Register(ctx context.Context, username, email, credential string) (*models.Account, error)

	// Authenticate returns the account when the credential matches, and
	// ErrInvalidCredentials otherwise, including for unknown usernames.
	Authenticate(ctx context.Context, username, credential string) (*models.Account, error)

	ValidateCredential(credential string) error
}
