package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func TestSucceedsFirstAttempt(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), Policy{MaxAttempts: 3}, isTransient, func(context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetriesTransientFailures(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, isTransient, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExhaustsPolicy(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, isTransient, func(context.Context) error {
		attempts++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, attempts)
}

func TestNeverRetriesPermanentFailures(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, isTransient, func(context.Context) error {
		attempts++
		return errPermanent
	})

	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, attempts)
}

func TestStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, Policy{MaxAttempts: 5, Delay: time.Minute}, isTransient, func(context.Context) error {
		attempts++
		cancel()
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "cancellation must win over the retry delay")
}

func TestZeroAttemptsStillRunsOnce(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), Policy{}, isTransient, func(context.Context) error {
		attempts++
		return errPermanent
	})

	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, attempts)
}
