package repository

import (
	"context"
	"time"

	"SentiPulse/internal/domain/models"
)

// RecordStore persists classified sentiment records and forecast batches.
type RecordStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, r *models.SentimentRecord) error
	StoreBatch(ctx context.Context, recs []*models.SentimentRecord) error
	Query(ctx context.Context, source Source, from, to time.Time, limit int) ([]*models.SentimentRecord, error)
	// HistorySpanDays reports how many days separate the oldest and newest
	// stored records (0 when the store is empty).
	HistorySpanDays(ctx context.Context) (int, error)
	// LatestPredictionBatch returns the most recent stored forecast batch
	// covering at least minHorizonDays future dates, or nil when none exists.
	LatestPredictionBatch(ctx context.Context, minHorizonDays int) ([]*models.PredictionPoint, error)
	StorePredictionBatch(ctx context.Context, pts []*models.PredictionPoint) error
	Health(ctx context.Context) error // ping
	Close() error
}
