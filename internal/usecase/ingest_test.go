package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPulse/internal/domain/models"
	domsvc "SentiPulse/internal/domain/service"
	"SentiPulse/internal/service/ratelimit"
	"SentiPulse/internal/service/sentiment"
	"SentiPulse/pkg/cache"
)

func testMentions(n int) []*models.RawMention {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := make([]*models.RawMention, n)
	for i := 0; i < n; i++ {
		out[i] = &models.RawMention{
			ID:        string(rune('a' + i)),
			Text:      "great product " + string(rune('a'+i)),
			Source:    "twitter",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func newTestIngestor(fetcher *fakeFetcher, classifier *fakeClassifier, opts ...IngestorOption) (*Ingestor, *fakeMetrics) {
	metrics := newFakeMetrics()
	ing := NewIngestor(
		cache.NewGate(cache.NewMemoryCache()),
		ratelimit.NewPacer(time.Millisecond),
		fetcher,
		classifier,
		sentiment.NewNormalizer(rand.New(rand.NewSource(1))),
		metrics,
		testLogger(),
		opts...,
	)
	return ing, metrics
}

func TestFetchRecentReturnsClassifiedRecords(t *testing.T) {
	fetcher := &fakeFetcher{mentions: testMentions(3)}
	classifier := &fakeClassifier{raw: map[string]any{"positive": 70.0, "negative": 20.0, "neutral": 10.0}}
	ing, _ := newTestIngestor(fetcher, classifier)

	records := ing.FetchRecent(context.Background(), "twitter", "brand", 3)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.False(t, r.Synthetic)
		assert.Equal(t, "twitter", r.Source)
		assert.Equal(t, "positive", r.Dominant)
		assert.InDelta(t, 100, r.Score.Sum(), 0.5)
		assert.InDelta(t, 0.7, r.Confidence, 0.01)
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.TextFingerprint)
	}

	// Most-recent-last ordering preserved from the source.
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].CreatedAt.After(records[i-1].CreatedAt))
	}
}

func TestFetchRecentIdempotentWithinTTL(t *testing.T) {
	fetcher := &fakeFetcher{mentions: testMentions(2)}
	classifier := &fakeClassifier{raw: map[string]any{"positive": 60.0, "negative": 30.0, "neutral": 10.0}}
	ing, _ := newTestIngestor(fetcher, classifier, WithRecentTTL(time.Minute))

	first := ing.FetchRecent(context.Background(), "twitter", "brand", 2)
	second := ing.FetchRecent(context.Background(), "twitter", "brand", 2)

	require.Equal(t, 1, fetcher.callCount())
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestFetchRecentSyntheticOnUpstreamFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: domsvc.ErrUpstreamUnavailable}
	classifier := &fakeClassifier{raw: map[string]any{"positive": 60.0, "negative": 30.0, "neutral": 10.0}}
	ing, metrics := newTestIngestor(fetcher, classifier)

	records := ing.FetchRecent(context.Background(), "twitter", "brand", 5)
	require.Len(t, records, 5)
	for _, r := range records {
		assert.True(t, r.Synthetic)
		assert.InDelta(t, 100, r.Score.Sum(), 0.5)
	}
	// Most-recent-last ordering on the synthetic path too.
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].CreatedAt.After(records[i-1].CreatedAt))
	}
	assert.Equal(t, 1, metrics.errorCount("ingest_fallback"))
}

func TestFetchRecentSyntheticOnRateLimit(t *testing.T) {
	fetcher := &fakeFetcher{err: domsvc.ErrRateLimited}
	classifier := &fakeClassifier{raw: map[string]any{"positive": 60.0, "negative": 30.0, "neutral": 10.0}}
	ing, _ := newTestIngestor(fetcher, classifier)

	records := ing.FetchRecent(context.Background(), "twitter", "brand", 3)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.True(t, r.Synthetic)
	}
}

func TestFetchRecentSyntheticOnMalformedScore(t *testing.T) {
	fetcher := &fakeFetcher{mentions: testMentions(2)}
	classifier := &fakeClassifier{raw: map[string]any{"label": "POSITIVE"}}
	ing, _ := newTestIngestor(fetcher, classifier)

	records := ing.FetchRecent(context.Background(), "twitter", "brand", 2)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.Synthetic)
	}
}

func TestFetchRecentCapsUpstreamBatch(t *testing.T) {
	fetcher := &fakeFetcher{mentions: testMentions(10)}
	classifier := &fakeClassifier{raw: map[string]any{"positive": 50.0, "negative": 25.0, "neutral": 25.0}}
	ing, _ := newTestIngestor(fetcher, classifier)

	records := ing.FetchRecent(context.Background(), "twitter", "brand", 50)
	// Upstream load is bounded regardless of the requested limit.
	require.LessOrEqual(t, len(records), 10)
}

func TestFetchRecentPersistsBestEffort(t *testing.T) {
	fetcher := &fakeFetcher{mentions: testMentions(2)}
	classifier := &fakeClassifier{raw: map[string]any{"positive": 70.0, "negative": 20.0, "neutral": 10.0}}
	store := &fakeStore{}
	pub := &fakePublisher{}
	ing, _ := newTestIngestor(fetcher, classifier, WithPersistence(store, pub))

	ing.FetchRecent(context.Background(), "twitter", "brand", 2)
	assert.Len(t, store.records, 2)
	assert.Len(t, pub.published, 2)
}

func TestAnalyzeTextSurfacesMalformedScore(t *testing.T) {
	classifier := &fakeClassifier{raw: map[string]any{"label": "POSITIVE"}}
	ing, _ := newTestIngestor(&fakeFetcher{}, classifier)

	_, err := ing.AnalyzeText(context.Background(), "some text", "manual")
	var malformed *sentiment.MalformedScoreError
	require.ErrorAs(t, err, &malformed)
}

func TestAnalyzeTextReturnsRecord(t *testing.T) {
	classifier := &fakeClassifier{raw: map[string]any{"pos": 0.8, "neg": 0.1, "neu": 0.1, "confidence": 0.95}}
	ing, _ := newTestIngestor(&fakeFetcher{}, classifier)

	rec, err := ing.AnalyzeText(context.Background(), "love it", "manual")
	require.NoError(t, err)
	assert.Equal(t, "positive", rec.Dominant)
	assert.InDelta(t, 0.95, rec.Confidence, 0.001)
	assert.Equal(t, models.Fingerprint("love it"), rec.TextFingerprint)
}

func TestAnalyzeTextCachedByFingerprint(t *testing.T) {
	classifier := &fakeClassifier{raw: map[string]any{"positive": 80.0, "negative": 10.0, "neutral": 10.0}}
	ing, _ := newTestIngestor(&fakeFetcher{}, classifier)

	first, err := ing.AnalyzeText(context.Background(), "same text", "manual")
	require.NoError(t, err)
	second, err := ing.AnalyzeText(context.Background(), "same text", "manual")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAnalyzeTextClassifierFailureSurfaced(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("sidecar down")}
	ing, _ := newTestIngestor(&fakeFetcher{}, classifier)

	_, err := ing.AnalyzeText(context.Background(), "text", "manual")
	require.Error(t, err)
}

func TestAnalyzeBatchToleratesItemFailures(t *testing.T) {
	classifier := &fakeClassifier{
		raw: map[string]any{"positive": 70.0, "negative": 20.0, "neutral": 10.0},
		byText: map[string]map[string]any{
			"awful experience": {"positive": 10.0, "negative": 80.0, "neutral": 10.0},
			"it exists":        {"positive": 20.0, "negative": 20.0, "neutral": 60.0},
			"garbled":          {"label": "POSITIVE"}, // malformed score
		},
	}
	ing, _ := newTestIngestor(&fakeFetcher{}, classifier)

	batch := ing.AnalyzeBatch(context.Background(), []string{
		"love it", "awful experience", "it exists", "garbled",
	}, "manual")

	assert.Equal(t, 4, batch.Total)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, 1, batch.Summary.Positive)
	assert.Equal(t, 1, batch.Summary.Negative)
	assert.Equal(t, 1, batch.Summary.Neutral)
}

func TestAnalyzeBatchCapsTexts(t *testing.T) {
	classifier := &fakeClassifier{raw: map[string]any{"positive": 70.0, "negative": 20.0, "neutral": 10.0}}
	ing, _ := newTestIngestor(&fakeFetcher{}, classifier)

	texts := make([]string, MaxBatchTexts+50)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	batch := ing.AnalyzeBatch(context.Background(), texts, "manual")
	assert.Equal(t, MaxBatchTexts, batch.Total)
}

func TestAnalyzeBatchReusesAnalyzeCache(t *testing.T) {
	classifier := &fakeClassifier{raw: map[string]any{"positive": 70.0, "negative": 20.0, "neutral": 10.0}}
	ing, _ := newTestIngestor(&fakeFetcher{}, classifier)

	first := ing.AnalyzeBatch(context.Background(), []string{"same text"}, "manual")
	second := ing.AnalyzeBatch(context.Background(), []string{"same text"}, "manual")
	require.Len(t, first.Results, 1)
	require.Len(t, second.Results, 1)
	assert.Equal(t, first.Results[0].ID, second.Results[0].ID)
}
