package models

import (
	"context"
	"fmt"

	dommodels "SentiPulse/internal/domain/models"
	domsvc "SentiPulse/internal/domain/service"
	"SentiPulse/pkg/config"
)

// HTTPTrendModel calls the trend/seasonality forecasting model over HTTP.
type HTTPTrendModel struct{ base *HTTPServiceBase }

func NewHTTPTrendModel(cfg *config.Config) *HTTPTrendModel {
	return &HTTPTrendModel{base: NewHTTPServiceBase(cfg)}
}

func (m *HTTPTrendModel) Predict(ctx context.Context, series []float64, horizon int) ([]dommodels.ModelPoint, error) {
	var fr forecastResp
	if err := m.base.PostJSONWithRetry(ctx, "/forecast/trend", forecastReq{Series: series, Horizon: horizon}, &fr, 2); err != nil {
		return nil, fmt.Errorf("post trend forecast: %w: %v", domsvc.ErrModelInference, err)
	}
	return fr.modelPoints(horizon)
}

var _ domsvc.TrendModel = (*HTTPTrendModel)(nil)
