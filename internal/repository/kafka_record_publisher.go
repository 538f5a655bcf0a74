package repository

import (
	"context"

	"SentiPulse/internal/domain/models"
	"SentiPulse/internal/domain/repository"
	pkgkafka "SentiPulse/pkg/kafka"
)

// KafkaRecordPublisher implements Publisher for Kafka.
type KafkaRecordPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRecordPublisher creates a Kafka record publisher.
func NewKafkaRecordPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaRecordPublisher{producer: producer, topic: topic}
}

func (p *KafkaRecordPublisher) Publish(ctx context.Context, r *models.SentimentRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Source), r)
}

func (p *KafkaRecordPublisher) PublishBatch(ctx context.Context, recs []*models.SentimentRecord) error {
	if len(recs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(recs))
	for i, r := range recs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Source),
			Value: r,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaRecordPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
