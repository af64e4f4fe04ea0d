package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrValidation marks malformed input (out-of-range progress, unknown
	// item type). Terminal, never retried.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown enrollment, course or curriculum item.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an ownership mismatch between the caller and the
	// enrollment being touched.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks a duplicate-creation attempt that lost a race on a
	// unique index.
	ErrConflict = errors.New("conflict")
)

// IneligibleError is returned when a certificate is requested below the
// eligibility threshold. It carries the current aggregate so the UI can
// render how much progress is still needed.
type IneligibleError struct {
	Progress int
	Required int
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("certificate not available: progress %d%% of required %d%%", e.Progress, e.Required)
}

// TransientStoreError wraps a retryable store failure.
type TransientStoreError struct {
	Err error
}

func (e *TransientStoreError) Error() string {
	return "transient store error: " + e.Err.Error()
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// classifyStoreErr separates terminal gorm errors from retryable ones.
// Record-not-found and duplicate-key are logic outcomes the caller handles;
// everything else (connection drops, timeouts) is treated as transient.
func classifyStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return &TransientStoreError{Err: err}
}
