package ogc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryDoSucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	err := DefaultRetryPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestRetryDoExhaustsAttempts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestRetryDoStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, Backoff: time.Hour}
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestRetryDoZeroAttemptsRunsOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	err := RetryPolicy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestDefaultRetryPolicy(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()
	require.Equal(t, 3, p.MaxAttempts)
	require.Equal(t, 5*time.Second, p.Backoff)
}
