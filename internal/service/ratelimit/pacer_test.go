package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPacerFirstCallImmediate(t *testing.T) {
	p := NewPacer(2 * time.Second)

	start := time.Now()
	require.NoError(t, p.Acquire(context.Background(), "twitter"))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerEnforcesSpacing(t *testing.T) {
	p := NewPacer(100 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Acquire(ctx, "twitter"))

	start := time.Now()
	require.NoError(t, p.Acquire(ctx, "twitter"))
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestPacerSourcesIndependent(t *testing.T) {
	p := NewPacer(time.Second)

	require.True(t, p.TryAcquire("twitter"))
	require.True(t, p.TryAcquire("facebook"))
	require.False(t, p.TryAcquire("twitter"))
}

func TestPacerTryAcquireNonBlocking(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)

	require.True(t, p.TryAcquire("reviews"))
	require.False(t, p.TryAcquire("reviews"))

	time.Sleep(60 * time.Millisecond)
	require.True(t, p.TryAcquire("reviews"))
}

func TestPacerConcurrentCallersOnePermitted(t *testing.T) {
	p := NewPacer(2 * time.Second)

	var permitted int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.TryAcquire("twitter") {
				atomic.AddInt32(&permitted, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&permitted))
}

func TestPacerAcquireHonorsContext(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Acquire(ctx, "surveys"))
	require.Error(t, p.Acquire(ctx, "surveys"))
}

func TestPacerDefaultInterval(t *testing.T) {
	require.Equal(t, DefaultInterval, NewPacer(0).Interval())
	require.Equal(t, time.Second, NewPacer(time.Second).Interval())
}
