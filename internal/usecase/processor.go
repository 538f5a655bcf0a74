package usecase

import (
	"context"
	"fmt"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	domsvc "SentiPulse/internal/domain/service"
	"SentiPulse/internal/service/sentiment"

	"github.com/google/uuid"
)

// MentionProcessor classifies streamed mentions and routes the resulting
// records to the configured backend.
type MentionProcessor struct {
	classifier domsvc.Classifier
	normalizer *sentiment.Normalizer
	pub        drepo.Publisher
	store      drepo.RecordStore
	metrics    drepo.Metrics
	backend    string
}

// NewMentionProcessor creates a new MentionProcessor instance.
func NewMentionProcessor(
	classifier domsvc.Classifier,
	normalizer *sentiment.Normalizer,
	pub drepo.Publisher,
	store drepo.RecordStore,
	metrics drepo.Metrics,
	backend string,
) *MentionProcessor {
	return &MentionProcessor{
		classifier: classifier,
		normalizer: normalizer,
		pub:        pub,
		store:      store,
		metrics:    metrics,
		backend:    backend,
	}
}

// Process classifies a single mention and routes it to the configured backend.
func (p *MentionProcessor) Process(ctx context.Context, m *models.RawMention) error {
	if m == nil {
		return fmt.Errorf("mention is nil")
	}

	start := time.Now()
	rec, err := p.record(ctx, m)
	if err != nil {
		p.metrics.RecordError("classify")
		return fmt.Errorf("classify mention: %w", err)
	}

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, rec)
	case "clickhouse":
		err = p.store.Store(ctx, rec)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process mention: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, rec.Source)
	p.metrics.RecordSentiment(rec.Source, rec.Score.Positive)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch classifies and routes multiple mentions.
func (p *MentionProcessor) ProcessBatch(ctx context.Context, mentions []*models.RawMention) error {
	if len(mentions) == 0 {
		return nil
	}

	start := time.Now()
	records := make([]*models.SentimentRecord, 0, len(mentions))
	for _, m := range mentions {
		rec, err := p.record(ctx, m)
		if err != nil {
			p.metrics.RecordError("classify")
			return fmt.Errorf("classify mention: %w", err)
		}
		records = append(records, rec)
	}

	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, records)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, records)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, r := range records {
		p.metrics.RecordMessageSent(p.backend, r.Source)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

func (p *MentionProcessor) record(ctx context.Context, m *models.RawMention) (*models.SentimentRecord, error) {
	raw, err := p.classifier.Analyze(ctx, m.Text)
	if err != nil {
		return nil, err
	}
	score, err := p.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &models.SentimentRecord{
		ID:              uuid.NewString(),
		Source:          m.Source,
		TextFingerprint: models.Fingerprint(m.Text),
		Score:           score,
		Dominant:        score.Dominant(),
		Confidence:      sentiment.Confidence(raw, score),
		CreatedAt:       createdAt,
	}, nil
}

// Close closes underlying resources if available.
func (p *MentionProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
