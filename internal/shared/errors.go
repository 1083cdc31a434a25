package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates a referenced product, bill or payment is absent.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a sale would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates a concurrent update raced this one.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports user-correctable input problems with enough
// detail to fix the request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a durable-store failure. The cause stays server-side;
// clients only ever see the correlation id.
type StorageError struct {
	CorrelationID string
	Err           error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure [%s]: %v", e.CorrelationID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage tags err as a storage failure with a fresh correlation id.
// Returns nil for nil so it can wrap call results directly.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{CorrelationID: uuid.NewString()[:8], Err: err}
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// CorrelationID extracts the id from a storage error, or "" when err is
// not one.
func CorrelationID(err error) string {
	var se *StorageError
	if errors.As(err, &se) {
		return se.CorrelationID
	}
	return ""
}
