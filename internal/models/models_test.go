package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     ErrorKind
		sentinel error
	}{
		{"not found", NotFound("ledger.apply", "a1", "f1"), KindNotFound, ErrNotFound},
		{"invalid amount", InvalidAmount("ledger.apply", "a1", -3), KindInvalidAmount, ErrInvalidAmount},
		{"insufficient funds", InsufficientFunds("settle", "a1", "f1", 10, 5), KindInsufficientFunds, ErrInsufficientFunds},
		{"storage failure", StorageFailure("store.commit", errors.New("disk full")), KindStorageFailure, ErrStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if got := KindOf(wrapped); got != tt.kind {
				t.Errorf("KindOf = %v, want %v", got, tt.kind)
			}
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v) = false", tt.sentinel)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := InsufficientFunds("settlement.download", "acct", "file", 10, 5)
	want := "settlement.download: insufficient funds account=acct file=file required=10 available=5"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	cause := errors.New("disk full")
	serr := StorageFailure("store.commit", cause)
	if !errors.Is(serr, cause) {
		t.Error("storage failure should unwrap to its cause")
	}
	if !strings.HasSuffix(serr.Error(), "disk full") {
		t.Errorf("Error() = %q", serr.Error())
	}
}

func TestStorageFailurePassesLedgerErrorsThrough(t *testing.T) {
	nf := NotFound("files.get", "", "f1")
	if got := StorageFailure("outer", nf); got != error(nf) {
		t.Errorf("StorageFailure rewrapped a ledger error: %v", got)
	}
	if StorageFailure("outer", nil) != nil {
		t.Error("StorageFailure(nil) should be nil")
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("plain errors have no kind")
	}
}

func TestCategoryFor(t *testing.T) {
	tests := map[string]string{
		"movie.MP4":   "video",
		"photo.jpeg":  "image",
		"paper.pdf":   "document",
		"tool.7z":     "software",
		"song.flac":   "music",
		"archive.tgz": CategoryOther,
		"README":      CategoryOther,
	}
	for name, want := range tests {
		if got := CategoryFor(name); got != want {
			t.Errorf("CategoryFor(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in, want Page
	}{
		{Page{}, Page{Limit: DefaultPageLimit}},
		{Page{Limit: 5, Offset: 10}, Page{Limit: 5, Offset: 10}},
		{Page{Limit: 1000}, Page{Limit: MaxPageLimit}},
		{Page{Limit: -1, Offset: -4}, Page{Limit: DefaultPageLimit}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("%+v.Normalize() = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestTransactionKindValid(t *testing.T) {
	if !KindEarn.Valid() || !KindSpend.Valid() {
		t.Error("earn and spend must be valid")
	}
	if TransactionKind("refund").Valid() {
		t.Error("refund must not be valid")
	}
}
