package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWithRetryRecoversFromTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(func() error {
		calls++
		if calls < 3 {
			return &TransientStoreError{Err: errors.New("connection reset")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := withRetry(func() error {
		calls++
		return &TransientStoreError{Err: errors.New("connection reset")}
	})

	assert.Equal(t, maxStoreAttempts, calls)
	var transient *TransientStoreError
	assert.ErrorAs(t, err, &transient)
}

func TestWithRetryDoesNotRetryTerminalErrors(t *testing.T) {
	calls := 0
	err := withRetry(func() error {
		calls++
		return fmt.Errorf("%w: progress out of range", ErrValidation)
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, calls)

	calls = 0
	err = withRetry(func() error {
		calls++
		return gorm.ErrDuplicatedKey
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Equal(t, 1, calls)
}

func TestClassifyStoreErr(t *testing.T) {
	assert.NoError(t, classifyStoreErr(nil))

	// Logic outcomes pass through untouched so callers can branch on them.
	assert.ErrorIs(t, classifyStoreErr(gorm.ErrRecordNotFound), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, classifyStoreErr(gorm.ErrDuplicatedKey), gorm.ErrDuplicatedKey)

	// Anything else is wrapped as retryable.
	err := classifyStoreErr(errors.New("dial tcp: i/o timeout"))
	var transient *TransientStoreError
	require.ErrorAs(t, err, &transient)
	assert.ErrorContains(t, transient, "i/o timeout")
}
