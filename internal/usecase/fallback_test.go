package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeCallReturnsResult(t *testing.T) {
	got := SafeCall(context.Background(), testLogger(), "op", "twitter",
		func(ctx context.Context) ([]int, error) { return []int{1, 2}, nil },
		func() []int { return nil },
	)
	require.Equal(t, []int{1, 2}, got)
}

func TestSafeCallDegradesToSynthetic(t *testing.T) {
	got := SafeCall(context.Background(), testLogger(), "op", "twitter",
		func(ctx context.Context) ([]int, error) { return nil, errors.New("boom") },
		func() []int { return []int{9} },
	)
	require.Equal(t, []int{9}, got)
}

func TestSafeCallNeverPanicsOnNilResult(t *testing.T) {
	got := SafeCall(context.Background(), testLogger(), "op", "twitter",
		func(ctx context.Context) (*int, error) { return nil, errors.New("boom") },
		func() *int { v := 7; return &v },
	)
	require.NotNil(t, got)
	require.Equal(t, 7, *got)
}
