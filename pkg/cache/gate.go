package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Gate throttles repeated computations behind a TTL cache. A live entry is
// served without invoking the compute function; on a miss the result is
// cached on success only, so a transient failure self-heals on the next
// attempt. Concurrent misses for the same key are serialized per key so at
// most one recomputation runs per TTL window.
type Gate struct {
	cache Service

	mu       sync.Mutex
	inFlight map[string]*keyLock
}

// keyLock is refcounted so entries can be dropped once the last waiter
// releases; keys carry user input, an ever-growing lock map would leak.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewGate creates a gate over the given cache backend.
func NewGate(cache Service) *Gate {
	return &Gate{
		cache:    cache,
		inFlight: make(map[string]*keyLock),
	}
}

func (g *Gate) acquire(key string) *keyLock {
	g.mu.Lock()
	l, ok := g.inFlight[key]
	if !ok {
		l = &keyLock{}
		g.inFlight[key] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return l
}

func (g *Gate) release(key string, l *keyLock) {
	l.mu.Unlock()

	g.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(g.inFlight, key)
	}
	g.mu.Unlock()
}

// GetOrCompute returns the cached payload for key when a live entry exists,
// otherwise runs compute, caches its JSON encoding with the given TTL and
// returns the fresh value. Compute failures are returned unmodified and
// never cached. Cache backend failures degrade to computing fresh; a result
// that cannot be stored is still returned.
func GetOrCompute[T any](ctx context.Context, g *Gate, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := lookup[T](ctx, g, key); ok {
		return v, nil
	}

	lock := g.acquire(key)
	defer g.release(key, lock)

	// Another caller may have filled the entry while we waited.
	if v, ok := lookup[T](ctx, g, key); ok {
		return v, nil
	}

	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if payload, err := json.Marshal(v); err == nil {
		_ = g.cache.Set(ctx, key, string(payload), ttl)
	}
	return v, nil
}

// lookup treats backend errors and corrupt entries as misses so a broken
// cache never blocks a fresh computation.
func lookup[T any](ctx context.Context, g *Gate, key string) (T, bool) {
	var zero T
	payload, err := g.cache.Get(ctx, key)
	if err != nil {
		return zero, false
	}
	var v T
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return zero, false
	}
	return v, true
}
