package service

import "errors"

// Failure taxonomy for the ingestion and forecast paths. These are signals
// for the fallback chain, not user-visible errors.
var (
	// ErrUpstreamUnavailable indicates the external source is unreachable.
	ErrUpstreamUnavailable = errors.New("upstream source unavailable")

	// ErrRateLimited indicates the external source refused the call for
	// pacing reasons. Distinguishable from generic failure.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrInsufficientHistory indicates the record store holds fewer days of
	// history than live forecasting requires.
	ErrInsufficientHistory = errors.New("insufficient history for live forecast")

	// ErrModelInference indicates a forecasting model call failed.
	ErrModelInference = errors.New("model inference failed")
)
