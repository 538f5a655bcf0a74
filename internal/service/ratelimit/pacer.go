package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between outbound calls per source.
const DefaultInterval = 2 * time.Second

// Pacer enforces a minimum spacing between outbound calls to each external
// source, shared across all concurrent callers of that source. One limiter
// per source, created on first use; state lives for the process lifetime.
type Pacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// NewPacer creates a pacer with the given inter-call spacing.
// A non-positive interval falls back to DefaultInterval.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Pacer{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

func (p *Pacer) limiter(source string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[source]
	if !ok {
		l = rate.NewLimiter(rate.Every(p.interval), 1)
		p.limiters[source] = l
	}
	return l
}

// Acquire blocks until a call to source is permitted or ctx is done.
func (p *Pacer) Acquire(ctx context.Context, source string) error {
	return p.limiter(source).Wait(ctx)
}

// TryAcquire reports whether a call to source is permitted right now,
// without waiting. Callers that cannot tolerate waiting skip the upstream
// call on false and serve cached or stale data instead.
func (p *Pacer) TryAcquire(source string) bool {
	return p.limiter(source).Allow()
}

// Interval returns the configured inter-call spacing.
func (p *Pacer) Interval() time.Duration { return p.interval }
