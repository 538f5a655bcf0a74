package repository

import (
	"context"

	"SentiPulse/internal/domain/models"
)

// MentionStream is a live feed of raw mentions from an external source.
type MentionStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.RawMention, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// MentionFetcher pulls a bounded batch of recent mentions on demand.
type MentionFetcher interface {
	// FetchBatch returns up to maxItems recent mentions matching query,
	// most-recent-last. Returns ErrRateLimited when the upstream refuses
	// the call for pacing reasons.
	FetchBatch(ctx context.Context, query string, maxItems int) ([]*models.RawMention, error)
}

// Publisher forwards classified records to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, r *models.SentimentRecord) error
	PublishBatch(ctx context.Context, recs []*models.SentimentRecord) error
	Close() error
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordMessageSent(backend, source string)
	RecordError(kind string)
	RecordSentiment(source string, positive float64)
	RecordLatency(op string, seconds float64)
}
