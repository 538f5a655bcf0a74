package service

import (
	"context"

	"SentiPulse/internal/domain/models"
)

// Classifier turns text into a raw sentiment distribution. The shape of the
// returned map is model-dependent; the normalizer resolves it into a
// canonical score.
type Classifier interface {
	Analyze(ctx context.Context, text string) (map[string]any, error)
}

// SequenceModel forecasts a daily series using sequence learning.
type SequenceModel interface {
	Predict(ctx context.Context, series []float64, horizon int) ([]models.ModelPoint, error)
}

// TrendModel forecasts a daily series using trend/seasonality decomposition.
type TrendModel interface {
	Predict(ctx context.Context, series []float64, horizon int) ([]models.ModelPoint, error)
}
