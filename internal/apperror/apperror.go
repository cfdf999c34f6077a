package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	// ErrStorage marks persistence I/O failures (disk unwritable,
	// directory uncreatable, transaction rolled back).
	ErrStorage = errors.New("storage failure")
	// ErrSync marks remote network/auth failures during a sync run.
	ErrSync = errors.New("sync failed")
)

type AppError struct {
	Err     error  // sentinel cause, for errors.Is checks
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// StorageFailed wraps a backend I/O error. Storage errors always propagate
// to the caller — the storage layer never swallows them.
func StorageFailed(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: fmt.Sprintf("storage %s failed: %v", op, cause),
	}
}

// SyncFailed wraps a remote error from the gist client. The orchestrator
// decides per mode whether this aborts the batch or just the one item.
func SyncFailed(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrSync,
		Message: fmt.Sprintf("sync %s failed: %v", op, cause),
	}
}
