package models

import (
	"context"
	"fmt"

	dommodels "SentiPulse/internal/domain/models"
	domsvc "SentiPulse/internal/domain/service"
	"SentiPulse/pkg/config"
)

// HTTPSequenceModel calls the sequence forecasting model over HTTP.
type HTTPSequenceModel struct{ base *HTTPServiceBase }

func NewHTTPSequenceModel(cfg *config.Config) *HTTPSequenceModel {
	return &HTTPSequenceModel{base: NewHTTPServiceBase(cfg)}
}

type forecastReq struct {
	Series  []float64 `json:"series"`
	Horizon int       `json:"horizon"`
}

type forecastResp struct {
	Points []struct {
		Point float64 `json:"point"`
		Lower float64 `json:"lower"`
		Upper float64 `json:"upper"`
	} `json:"points"`
}

func (pts forecastResp) modelPoints(horizon int) ([]dommodels.ModelPoint, error) {
	if len(pts.Points) < horizon {
		return nil, fmt.Errorf("model returned %d points, want %d: %w", len(pts.Points), horizon, domsvc.ErrModelInference)
	}
	out := make([]dommodels.ModelPoint, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = dommodels.ModelPoint{
			Point: pts.Points[i].Point,
			Lower: pts.Points[i].Lower,
			Upper: pts.Points[i].Upper,
		}
	}
	return out, nil
}

func (m *HTTPSequenceModel) Predict(ctx context.Context, series []float64, horizon int) ([]dommodels.ModelPoint, error) {
	var fr forecastResp
	if err := m.base.PostJSON(ctx, "/forecast/sequence", forecastReq{Series: series, Horizon: horizon}, &fr); err != nil {
		return nil, fmt.Errorf("post sequence forecast: %w: %v", domsvc.ErrModelInference, err)
	}
	return fr.modelPoints(horizon)
}

var _ domsvc.SequenceModel = (*HTTPSequenceModel)(nil)
