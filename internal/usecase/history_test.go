package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPulse/internal/domain/models"
	"SentiPulse/pkg/cache"
	"SentiPulse/pkg/util"
)

func recordAt(source string, daysAgo int, positive float64) *models.SentimentRecord {
	day := util.DayStart(time.Now().UTC()).AddDate(0, 0, -daysAgo)
	return &models.SentimentRecord{
		ID:     "r",
		Source: source,
		Score: models.SentimentScore{
			Positive: positive,
			Negative: (100 - positive) / 2,
			Neutral:  (100 - positive) / 2,
		},
		CreatedAt: day.Add(12 * time.Hour),
	}
}

func newTestAggregator(store *fakeStore) *Aggregator {
	return NewAggregator(cache.NewGate(cache.NewMemoryCache()), store, newFakeMetrics(), testLogger(), time.Minute)
}

func TestHistoricalExactLengthOldestFirst(t *testing.T) {
	store := &fakeStore{}
	for d := 0; d < 5; d++ {
		store.records = append(store.records, recordAt("twitter", d, 60))
	}
	agg := newTestAggregator(store)

	buckets, err := agg.Historical(context.Background(), 5, "all")
	require.NoError(t, err)
	require.Len(t, buckets, 5)

	for i := 1; i < len(buckets); i++ {
		assert.True(t, buckets[i].PeriodStart.After(buckets[i-1].PeriodStart))
	}
	// Last bucket is the current (partial) day.
	assert.True(t, buckets[4].PeriodStart.Equal(util.DayStart(time.Now().UTC())))
}

func TestHistoricalEmptyDayHoldsPrevious(t *testing.T) {
	store := &fakeStore{}
	// Records on day -2 only; days -1 and 0 are empty.
	store.records = append(store.records, recordAt("twitter", 2, 80))
	agg := newTestAggregator(store)

	buckets, err := agg.Historical(context.Background(), 3, "all")
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	assert.Equal(t, 1, buckets[0].TotalCount)
	assert.InDelta(t, 80, buckets[0].PositivePct, 0.001)

	for _, b := range buckets[1:] {
		assert.Equal(t, 0, b.TotalCount)
		assert.InDelta(t, buckets[0].PositivePct, b.PositivePct, 0.001)
		assert.InDelta(t, buckets[0].NegativePct, b.NegativePct, 0.001)
		assert.InDelta(t, buckets[0].NeutralPct, b.NeutralPct, 0.001)
	}
}

func TestHistoricalLeadingEmptyDaysZero(t *testing.T) {
	store := &fakeStore{}
	store.records = append(store.records, recordAt("twitter", 0, 70))
	agg := newTestAggregator(store)

	buckets, err := agg.Historical(context.Background(), 3, "all")
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	for _, b := range buckets[:2] {
		assert.Equal(t, 0, b.TotalCount)
		assert.Zero(t, b.PositivePct)
		assert.Zero(t, b.NegativePct)
		assert.Zero(t, b.NeutralPct)
	}
	assert.Equal(t, 1, buckets[2].TotalCount)
}

func TestHistoricalMeansPerDay(t *testing.T) {
	store := &fakeStore{}
	store.records = append(store.records,
		recordAt("twitter", 0, 60),
		recordAt("twitter", 0, 80),
	)
	agg := newTestAggregator(store)

	buckets, err := agg.Historical(context.Background(), 1, "all")
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, 2, buckets[0].TotalCount)
	assert.InDelta(t, 70, buckets[0].PositivePct, 0.001)
}

func TestHistoricalSourceFilter(t *testing.T) {
	store := &fakeStore{}
	store.records = append(store.records,
		recordAt("twitter", 0, 90),
		recordAt("facebook", 0, 10),
	)
	agg := newTestAggregator(store)

	buckets, err := agg.Historical(context.Background(), 1, "twitter")
	require.NoError(t, err)
	require.Equal(t, 1, buckets[0].TotalCount)
	assert.InDelta(t, 90, buckets[0].PositivePct, 0.001)
}

func TestHistoricalClampsDays(t *testing.T) {
	store := &fakeStore{}
	agg := newTestAggregator(store)

	buckets, err := agg.Historical(context.Background(), 500, "all")
	require.NoError(t, err)
	assert.Len(t, buckets, MaxHistoricalDays)

	buckets, err = agg.Historical(context.Background(), 0, "all")
	require.NoError(t, err)
	assert.Len(t, buckets, 1)
}

func TestHistoricalStoreErrorSurfaced(t *testing.T) {
	store := &fakeStore{queryErr: errors.New("store down")}
	agg := newTestAggregator(store)

	_, err := agg.Historical(context.Background(), 3, "all")
	require.Error(t, err)
}

func TestTrendsDirection(t *testing.T) {
	tests := []struct {
		name      string
		positives []float64 // oldest-first, one per day
		direction string
	}{
		{"improving", []float64{40, 40, 40, 60, 60, 60}, "improving"},
		{"declining", []float64{60, 60, 60, 40, 40, 40}, "declining"},
		{"stable", []float64{50, 50, 50, 52, 52, 52}, "stable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			for i, p := range tt.positives {
				store.records = append(store.records, recordAt("twitter", len(tt.positives)-1-i, p))
			}
			agg := newTestAggregator(store)

			report, err := agg.Trends(context.Background(), len(tt.positives), "all")
			require.NoError(t, err)
			assert.Equal(t, tt.direction, report.Direction)
			require.Len(t, report.Buckets, len(tt.positives))
		})
	}
}

func TestTrendsPeaksAndVolatility(t *testing.T) {
	store := &fakeStore{}
	store.records = append(store.records,
		recordAt("twitter", 3, 40),
		recordAt("twitter", 2, 90), // peak positive
		recordAt("twitter", 1, 20), // peak negative (lowest positive)
		recordAt("twitter", 0, 50),
	)
	agg := newTestAggregator(store)

	report, err := agg.Trends(context.Background(), 4, "all")
	require.NoError(t, err)

	require.NotNil(t, report.PeakPositiveDay)
	require.NotNil(t, report.PeakNegativeDay)
	assert.True(t, report.PeakPositiveDay.Equal(util.DayStart(time.Now().UTC()).AddDate(0, 0, -2)))
	assert.True(t, report.PeakNegativeDay.Equal(util.DayStart(time.Now().UTC()).AddDate(0, 0, -1)))
	assert.Greater(t, report.Volatility, 0.0)
}

func TestTrendsEmptyWindowStable(t *testing.T) {
	store := &fakeStore{}
	agg := newTestAggregator(store)

	report, err := agg.Trends(context.Background(), 7, "all")
	require.NoError(t, err)
	assert.Equal(t, "stable", report.Direction)
	assert.Zero(t, report.Change)
	assert.Nil(t, report.PeakPositiveDay)
	assert.Nil(t, report.PeakNegativeDay)
	assert.Zero(t, report.Volatility)
	assert.Len(t, report.Buckets, 7)
}

func TestTrendsIgnoresHeldOverDaysForPeaks(t *testing.T) {
	store := &fakeStore{}
	// One observed day, the rest hold its percentages with zero counts.
	store.records = append(store.records, recordAt("twitter", 4, 75))
	agg := newTestAggregator(store)

	report, err := agg.Trends(context.Background(), 5, "all")
	require.NoError(t, err)
	require.NotNil(t, report.PeakPositiveDay)
	assert.True(t, report.PeakPositiveDay.Equal(util.DayStart(time.Now().UTC()).AddDate(0, 0, -4)))
	// A single observed day has no spread.
	assert.Zero(t, report.Volatility)
}
