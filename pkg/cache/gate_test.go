package cache

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

func newTestGate() *Gate {
	return NewGate(NewMemoryCache(WithMemoryMaxSize(100)))
}

func TestGateServesCachedPayloadWithoutRecompute(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	var calls int32
	compute := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"a", "b"}, nil
	}

	first, err := GetOrCompute(ctx, g, "k", time.Minute, compute)
	require.NoError(t, err)

	second, err := GetOrCompute(ctx, g, "k", time.Minute, compute)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGateDoesNotCacheFailures(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	boom := errors.New("upstream down")
	var calls int32
	compute := func(ctx context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return 0, boom
		}
		return 42, nil
	}

	_, err := GetOrCompute(ctx, g, "k", time.Minute, compute)
	require.ErrorIs(t, err, boom)

	// Failure was not cached: the next call recomputes and succeeds.
	v, err := GetOrCompute(ctx, g, "k", time.Minute, compute)
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGateExpiredEntryRecomputes(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	var calls int32
	compute := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	_, err := GetOrCompute(ctx, g, "k", 10*time.Millisecond, compute)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = GetOrCompute(ctx, g, "k", time.Minute, compute)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGateSingleFlightPerKey(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	var calls int32
	compute := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := GetOrCompute(ctx, g, "k", time.Minute, compute)
			require.NoError(t, err)
			require.Equal(t, "v", v)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGateKeyLocksReleasedAfterCompute(t *testing.T) {
	g := NewGate(NewMemoryCache(WithMemoryMaxSize(10)))
	ctx := context.Background()

	// Keys carry caller input; the lock map must not grow with them.
	for i := 0; i < 500; i++ {
		key := Key("recent", "twitter", fmt.Sprintf("q%d", i), 10)
		_, err := GetOrCompute(ctx, g, key, time.Minute, func(ctx context.Context) (int, error) {
			return i, nil
		})
		require.NoError(t, err)
	}
	_, err := GetOrCompute(ctx, g, "boom", time.Minute, func(ctx context.Context) (int, error) {
		return 0, errors.New("compute failed")
	})
	require.Error(t, err)

	g.mu.Lock()
	defer g.mu.Unlock()
	require.Empty(t, g.inFlight)
}

func TestGateKeyLocksReleasedAfterConcurrentWaiters(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := GetOrCompute(ctx, g, "k", time.Minute, func(ctx context.Context) (string, error) {
				time.Sleep(10 * time.Millisecond)
				return "v", nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	require.Empty(t, g.inFlight)
}

func TestGateDistinctKeysComputeIndependently(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	va, err := GetOrCompute(ctx, g, Key("recent", "twitter", 10), time.Minute, func(ctx context.Context) (string, error) { return "a", nil })
	require.NoError(t, err)
	vb, err := GetOrCompute(ctx, g, Key("recent", "facebook", 10), time.Minute, func(ctx context.Context) (string, error) { return "b", nil })
	require.NoError(t, err)

	require.Equal(t, "a", va)
	require.Equal(t, "b", vb)
}
