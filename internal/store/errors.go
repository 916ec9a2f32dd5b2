package store

import (
	"errors"
	"fmt"
)

// StoreError represents a storage-layer failure with a stable code.
//
// Codes:
//   - STORE_UNAVAILABLE: the database could not be opened or reached
//   - INVALID_KEY: a record was submitted without a usable primary key
//     and none could be synthesized (only possible for non-order kinds;
//     orders mint an offline ID instead)
type StoreError struct {
	Code    string
	Message string
	Kind    string // the record kind involved, if known
	Err     error
}

const (
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeInvalidKey       = "INVALID_KEY"
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreUnavailable reports whether err is a STORE_UNAVAILABLE failure.
// Uses errors.As to handle wrapped errors.
func IsStoreUnavailable(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == ErrCodeStoreUnavailable
	}
	return false
}

// IsInvalidKey reports whether err is an INVALID_KEY failure.
func IsInvalidKey(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == ErrCodeInvalidKey
	}
	return false
}

// ErrNotFound is returned by point lookups when no record exists.
var ErrNotFound = errors.New("record not found")

func unavailable(op string, err error) error {
	return &StoreError{
		Code:    ErrCodeStoreUnavailable,
		Message: op,
		Err:     err,
	}
}

func invalidKey(kind, msg string) error {
	return &StoreError{
		Code:    ErrCodeInvalidKey,
		Message: msg,
		Kind:    kind,
	}
}
