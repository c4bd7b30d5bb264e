package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMapPreservesInputOrder(t *testing.T) {
	t.Parallel()

	inputs := make([]int, 100)
	for i := range inputs {
		inputs[i] = i
	}

	got := Map(context.Background(), inputs, 10, func(_ context.Context, in int) string {
		// Finish late items first to prove order does not follow completion.
		time.Sleep(time.Duration(100-in) * time.Microsecond)
		return fmt.Sprintf("out-%d", in)
	})

	require.Len(t, got, len(inputs))
	for i, out := range got {
		require.Equal(t, fmt.Sprintf("out-%d", i), out)
	}
}

func TestMapRespectsConcurrencyCeiling(t *testing.T) {
	t.Parallel()

	var inflight, peak int64
	var mu sync.Mutex

	inputs := make([]int, 50)
	Map(context.Background(), inputs, 10, func(_ context.Context, _ int) struct{} {
		cur := atomic.AddInt64(&inflight, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&inflight, -1)
		return struct{}{}
	})

	require.LessOrEqual(t, peak, int64(10))
	require.Greater(t, peak, int64(1))
}

type outcome struct {
	value int
	err   error
}

func TestMapFailuresStayItemScoped(t *testing.T) {
	t.Parallel()

	inputs := []int{0, 1, 2, 3, 4, 5}
	got := Map(context.Background(), inputs, 3, func(_ context.Context, in int) outcome {
		if in%2 == 0 {
			return outcome{err: errors.New("item failed")}
		}
		return outcome{value: in * 10}
	})

	require.Len(t, got, len(inputs))
	for i, out := range got {
		if i%2 == 0 {
			require.Error(t, out.err)
		} else {
			require.NoError(t, out.err)
			require.Equal(t, i*10, out.value)
		}
	}
}

func TestMapAllItemsFail(t *testing.T) {
	t.Parallel()

	got := Map(context.Background(), make([]int, 20), 10, func(_ context.Context, _ int) error {
		return errors.New("down")
	})
	require.Len(t, got, 20)
	for _, err := range got {
		require.Error(t, err)
	}
}

func TestMapEmptyAndDefaults(t *testing.T) {
	t.Parallel()

	require.Empty(t, Map(context.Background(), nil, 0, func(_ context.Context, in int) int { return in }))

	got := Map(context.Background(), []int{7}, 0, func(_ context.Context, in int) int { return in })
	require.Equal(t, []int{7}, got)
}
