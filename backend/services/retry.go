package services

import (
	"errors"
	"time"
)

const (
	maxStoreAttempts = 3
	initialBackoff   = 100 * time.Millisecond
)

// withRetry runs fn up to maxStoreAttempts times with exponential backoff.
// Only transient store errors are retried; the wrapped operations are
// idempotent by key, so repeating them is safe. Terminal errors surface
// immediately.
func withRetry(fn func() error) error {
	var err error
	backoff := initialBackoff

	for attempt := 0; attempt < maxStoreAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var transient *TransientStoreError
		if !errors.As(err, &transient) {
			return err
		}

		if attempt < maxStoreAttempts-1 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	return err
}
