package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoWithRetry(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	t.Run("succeeds on first attempt", func(t *testing.T) {
		// given
		calls := 0

		// when
		err := DoWithRetry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			return nil
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("recovers after transient failures", func(t *testing.T) {
		// given
		calls := 0

		// when
		err := DoWithRetry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("broker unavailable")
			}
			return nil
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error after exhausting attempts", func(t *testing.T) {
		// given
		calls := 0
		failure := errors.New("broker unavailable")

		// when
		err := DoWithRetry(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			return failure
		})

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, cfg.MaxRetries+1, calls)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		// given
		ctx, cancel := context.WithCancel(context.Background())

		// when
		err := DoWithRetry(ctx, cfg, func(ctx context.Context) error {
			cancel()
			return errors.New("broker unavailable")
		})

		// then
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	for attempt := 1; attempt <= 6; attempt++ {
		delay := calculateBackoff(cfg, attempt)
		assert.Greater(t, delay, time.Duration(0), "attempt %d", attempt)
		assert.LessOrEqual(t, delay, cfg.MaxDelay+cfg.MaxDelay/4, "attempt %d", attempt)
	}
}
