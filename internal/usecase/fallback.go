package usecase

import (
	"context"

	"SentiPulse/pkg/logger"
)

// SafeCall runs op and returns its result. On any failure it logs the
// degradation and returns the synthetic last-resort result instead, so the
// caller never observes an error. Components below this boundary fail
// loudly; the boundary stays resilient.
func SafeCall[T any](ctx context.Context, log *logger.Logger, operation, source string, op func(ctx context.Context) (T, error), synth func() T) T {
	v, err := op(ctx)
	if err == nil {
		return v
	}
	log.Warn("degraded to synthetic result",
		logger.String("operation", operation),
		logger.String("source", source),
		logger.Error(err),
	)
	return synth()
}
