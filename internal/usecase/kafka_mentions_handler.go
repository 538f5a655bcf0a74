package usecase

import (
	"context"
	"encoding/json"
	"time"

	"SentiPulse/internal/domain/models"
	domrepo "SentiPulse/internal/domain/repository"
	pkgkafka "SentiPulse/pkg/kafka"
)

// KafkaMentionsHandler consumes published sentiment records and writes them
// to storage.
type KafkaMentionsHandler struct {
	topic   string
	store   domrepo.RecordStore
	metrics domrepo.Metrics
}

func NewKafkaMentionsHandler(topic string, store domrepo.RecordStore, metrics domrepo.Metrics) *KafkaMentionsHandler {
	return &KafkaMentionsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaMentionsHandler) Topic() string { return h.topic }

// Handle decodes a published SentimentRecord and persists it.
func (h *KafkaMentionsHandler) Handle(ctx context.Context, b []byte) error {
	var rec models.SentimentRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if rec.Synthetic {
		// Synthetic records are never persisted.
		return nil
	}
	// E2E latency from record creation to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(rec.CreatedAt).Seconds())

	start := time.Now()
	err := h.store.Store(ctx, &rec)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", rec.Source)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaMentionsHandler)(nil)
