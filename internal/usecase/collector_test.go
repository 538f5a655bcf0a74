package usecase

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPulse/internal/domain/models"
	"SentiPulse/internal/service/sentiment"
)

func streamMention(id, text string) *models.RawMention {
	return &models.RawMention{
		ID:        id,
		Text:      text,
		Source:    "twitter",
		CreatedAt: time.Now().UTC(),
	}
}

func newCollectorFixture(script []streamRound) (*MentionCollector, *fakeStream, *fakeStore, *fakeMetrics) {
	stream := &fakeStream{script: script}
	store := &fakeStore{}
	metrics := newFakeMetrics()
	classifier := &fakeClassifier{raw: map[string]any{"positive": 70.0, "negative": 10.0, "neutral": 20.0}}
	proc := NewMentionProcessor(classifier, sentiment.NewNormalizer(rand.New(rand.NewSource(1))), &fakePublisher{}, store, metrics, "clickhouse")
	return NewMentionCollector(stream, proc, metrics, nil), stream, store, metrics
}

func TestCollectorResumesReadingAfterStreamFailure(t *testing.T) {
	// First connection dies after one mention; the second stays healthy.
	collector, stream, store, metrics := newCollectorFixture([]streamRound{
		{mentions: []*models.RawMention{streamMention("m1", "love the launch")}, err: errors.New("connection reset")},
		{mentions: []*models.RawMention{streamMention("m2", "still loving it")}, stayOpen: true},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, collector.Start(ctx))

	// Mentions from the re-dialed connection must keep flowing.
	require.Eventually(t, func() bool { return store.recordCount() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, stream.reconnectCount(), 1)
	assert.GreaterOrEqual(t, stream.readCount(), 2)
	assert.GreaterOrEqual(t, metrics.errorCount("stream"), 1)
}

func TestCollectorStopsOnContextCancel(t *testing.T) {
	collector, stream, _, _ := newCollectorFixture([]streamRound{
		{err: errors.New("connection reset")},
	})
	stream.alwaysClosed = true

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, collector.Start(ctx))

	require.Eventually(t, func() bool { return stream.reconnectCount() >= 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	// Once cancelled, the consume loop must not keep re-dialing.
	time.Sleep(50 * time.Millisecond)
	settled := stream.reconnectCount()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, stream.reconnectCount())
}
