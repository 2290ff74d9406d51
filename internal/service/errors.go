package service

import (
	"errors"
	"strconv"

	"connectrpc.com/connect"

	"github.com/mmynk/honeyfile/internal/auth"
	"github.com/mmynk/honeyfile/internal/catalog"
	"github.com/mmynk/honeyfile/internal/models"
)

// Metadata keys attached to insufficient-funds errors.
const (
	metaRequired  = "Honeyfile-Required-Points"
	metaAvailable = "Honeyfile-Available-Points"
)

// connectError maps ledger error kinds to Connect codes.
func connectError(err error) *connect.Error {
	var lerr *models.Error
	if errors.As(err, &lerr) {
		switch lerr.Kind {
		case models.KindNotFound:
			return connect.NewError(connect.CodeNotFound, err)
		case models.KindInvalidAmount:
			return connect.NewError(connect.CodeInvalidArgument, err)
		case models.KindInsufficientFunds:
			cerr := connect.NewError(connect.CodeFailedPrecondition, err)
			cerr.Meta().Set(metaRequired, strconv.FormatInt(lerr.Required, 10))
			cerr.Meta().Set(metaAvailable, strconv.FormatInt(lerr.Available, 10))
			return cerr
		case models.KindStorageFailure:
			return connect.NewError(connect.CodeUnavailable, err)
		}
	}

	switch {
	case errors.Is(err, catalog.ErrInvalidUpload),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidRegistration):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrAccountExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
