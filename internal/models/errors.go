package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies ledger failures so callers can branch on them.
type ErrorKind int

const (
	// KindNotFound: unknown account or file. Not retried.
	KindNotFound ErrorKind = iota + 1
	// KindInvalidAmount: non-positive amount or unknown transaction kind.
	KindInvalidAmount
	// KindInsufficientFunds: a spend would drive the balance negative.
	KindInsufficientFunds
	// KindStorageFailure: the transaction could not commit; nothing persisted.
	KindStorageFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidAmount:
		return "invalid amount"
	case KindInsufficientFunds:
		return "insufficient funds"
	case KindStorageFailure:
		return "storage failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error unwraps to the sentinel of its kind.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStorageFailure    = errors.New("storage failure")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidAmount:
		return ErrInvalidAmount
	case KindInsufficientFunds:
		return ErrInsufficientFunds
	case KindStorageFailure:
		return ErrStorageFailure
	default:
		return nil
	}
}

// Error is a structured ledger error.
type Error struct {
	Kind ErrorKind

	// Op names the failing operation, e.g. "ledger.apply".
	Op string

	AccountID string
	FileID    string

	// Required and Available are set for KindInsufficientFunds.
	Required  int64
	Available int64

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.AccountID != "" {
		fmt.Fprintf(&b, " account=%s", e.AccountID)
	}
	if e.FileID != "" {
		fmt.Fprintf(&b, " file=%s", e.FileID)
	}
	if e.Kind == KindInsufficientFunds {
		fmt.Fprintf(&b, " required=%d available=%d", e.Required, e.Available)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the ErrorKind of err, or 0 if err is not a ledger error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// NotFound builds a KindNotFound error.
func NotFound(op, accountID, fileID string) *Error {
	return &Error{Kind: KindNotFound, Op: op, AccountID: accountID, FileID: fileID}
}

// InvalidAmount builds a KindInvalidAmount error.
func InvalidAmount(op, accountID string, amount int64) *Error {
	return &Error{Kind: KindInvalidAmount, Op: op, AccountID: accountID,
		Err: fmt.Errorf("amount %d must be greater than 0", amount)}
}

// InsufficientFunds builds a KindInsufficientFunds error.
func InsufficientFunds(op, accountID, fileID string, required, available int64) *Error {
	return &Error{Kind: KindInsufficientFunds, Op: op, AccountID: accountID, FileID: fileID,
		Required: required, Available: available}
}

// StorageFailure wraps err as a KindStorageFailure error.
// Errors that are already ledger errors are returned unchanged.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != 0 {
		return err
	}
	return &Error{Kind: KindStorageFailure, Op: op, Err: err}
}
