package models

import "time"

// Model source tags for prediction points.
const (
	ModelSourceLive      = "live"
	ModelSourceStored    = "stored"
	ModelSourceSynthetic = "synthetic"
)

// Bucket is a per-day rollup of sentiment records. Derived, never persisted.
type Bucket struct {
	PeriodStart time.Time `json:"period_start"`
	PositivePct float64   `json:"positive_pct"`
	NegativePct float64   `json:"negative_pct"`
	NeutralPct  float64   `json:"neutral_pct"`
	TotalCount  int       `json:"total_count"`
}

// PredictionPoint is one day of a sentiment forecast.
// Invariant: Lower <= Predicted <= Upper and Predicted in [0,100].
type PredictionPoint struct {
	Date        time.Time `json:"date"`
	Predicted   float64   `json:"predicted"`
	Lower       float64   `json:"lower"`
	Upper       float64   `json:"upper"`
	Confidence  float64   `json:"confidence"` // [0,1]
	ModelSource string    `json:"model_source"`
}

// ModelPoint is one day of raw output from a single forecasting model.
type ModelPoint struct {
	Point float64 `json:"point"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TrendReport summarizes direction and notable days over a rollup window.
// Direction compares the positive share of the window's first half against
// its second half.
type TrendReport struct {
	Direction       string     `json:"direction"` // improving, declining, stable
	Change          float64    `json:"change"`    // percentage points
	PeakPositiveDay *time.Time `json:"peak_positive_day,omitempty"`
	PeakNegativeDay *time.Time `json:"peak_negative_day,omitempty"`
	Volatility      float64    `json:"volatility"`
	Buckets         []*Bucket  `json:"buckets"`
}

// Alert flags a forecast day where sentiment is predicted to dip with high
// confidence.
type Alert struct {
	Severity   string    `json:"severity"`
	Type       string    `json:"type"`
	Date       time.Time `json:"date"`
	Confidence float64   `json:"confidence"`
	Message    string    `json:"message"`
}
