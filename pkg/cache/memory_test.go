package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "payload", time.Minute))

	got, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "payload", got)
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	_, err := mc.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheLazyExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "payload", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := mc.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCacheMiss)

	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", "1", time.Minute))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", "2", time.Minute))
	time.Sleep(2 * time.Millisecond)

	// Touch "a" so "b" becomes the least recently used entry.
	_, err := mc.Get(ctx, "a")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, mc.Set(ctx, "c", "3", time.Minute))

	_, err = mc.Get(ctx, "b")
	require.ErrorIs(t, err, ErrCacheMiss)

	_, err = mc.Get(ctx, "a")
	require.NoError(t, err)
}

func TestKeyBuilder(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		params []interface{}
		want   string
	}{
		{"no params", "recent", nil, "recent"},
		{"mixed params", "recent", []interface{}{"twitter", 10}, "recent:twitter:10"},
		{"single param", "forecast", []interface{}{7}, "forecast:7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Key(tt.prefix, tt.params...))
		})
	}
}
