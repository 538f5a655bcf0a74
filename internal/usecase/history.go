package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	"SentiPulse/pkg/cache"
	"SentiPulse/pkg/logger"
	"SentiPulse/pkg/util"
)

// DefaultHistoricalTTL caches historical rollups.
const DefaultHistoricalTTL = 1800 * time.Second

// MaxHistoricalDays bounds a single rollup request.
const MaxHistoricalDays = 90

// trendThreshold is the half-window positive-share delta, in percentage
// points, below which the trend reads as stable.
const trendThreshold = 5.0

// Aggregator rolls stored sentiment records up into daily buckets.
type Aggregator struct {
	gate    *cache.Gate
	store   drepo.RecordStore
	metrics drepo.Metrics
	log     *logger.Logger
	ttl     time.Duration
}

// NewAggregator creates the historical aggregator.
func NewAggregator(gate *cache.Gate, store drepo.RecordStore, metrics drepo.Metrics, log *logger.Logger, ttl time.Duration) *Aggregator {
	if ttl <= 0 {
		ttl = DefaultHistoricalTTL
	}
	return &Aggregator{gate: gate, store: store, metrics: metrics, log: log, ttl: ttl}
}

// Historical returns exactly days buckets oldest-first, including the
// current partial day. A day with no matching records repeats the previous
// non-empty day's percentages with TotalCount 0, so charts never show gaps.
// Leading empty days (no predecessor) report zero percentages.
func (a *Aggregator) Historical(ctx context.Context, days int, sourceFilter string) ([]*models.Bucket, error) {
	if days < 1 {
		days = 1
	}
	if days > MaxHistoricalDays {
		days = MaxHistoricalDays
	}
	source := drepo.Source(sourceFilter)
	if !drepo.IsValidSource(source) {
		source = drepo.SourceAll
	}

	key := cache.Key("historical", days, source)
	start := time.Now()
	buckets, err := cache.GetOrCompute(ctx, a.gate, key, a.ttl, func(ctx context.Context) ([]*models.Bucket, error) {
		return a.aggregate(ctx, days, source)
	})
	a.metrics.RecordLatency("historical", time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordError("historical")
		return nil, err
	}
	return buckets, nil
}

// Trends rolls the historical window up into a direction report: the mean
// positive share of the window's second half against its first half, plus
// peak days and volatility over the days that actually had records.
func (a *Aggregator) Trends(ctx context.Context, days int, sourceFilter string) (*models.TrendReport, error) {
	buckets, err := a.Historical(ctx, days, sourceFilter)
	if err != nil {
		return nil, err
	}

	report := &models.TrendReport{Direction: "stable", Buckets: buckets}
	if len(buckets) >= 2 {
		half := len(buckets) / 2
		report.Change = meanPositive(buckets[half:]) - meanPositive(buckets[:half])
		switch {
		case report.Change > trendThreshold:
			report.Direction = "improving"
		case report.Change < -trendThreshold:
			report.Direction = "declining"
		}
	}

	// Peaks and volatility consider only days with records, so held-over
	// percentages from empty days do not skew them.
	var observed []*models.Bucket
	for _, b := range buckets {
		if b.TotalCount > 0 {
			observed = append(observed, b)
		}
	}
	if len(observed) > 0 {
		peakPos, peakNeg := observed[0], observed[0]
		for _, b := range observed[1:] {
			if b.PositivePct > peakPos.PositivePct {
				peakPos = b
			}
			if b.NegativePct > peakNeg.NegativePct {
				peakNeg = b
			}
		}
		posDay, negDay := peakPos.PeriodStart, peakNeg.PeriodStart
		report.PeakPositiveDay = &posDay
		report.PeakNegativeDay = &negDay
		report.Volatility = stddevPositive(observed)
	}
	return report, nil
}

func meanPositive(buckets []*models.Bucket) float64 {
	if len(buckets) == 0 {
		return 0
	}
	var sum float64
	for _, b := range buckets {
		sum += b.PositivePct
	}
	return sum / float64(len(buckets))
}

func stddevPositive(buckets []*models.Bucket) float64 {
	if len(buckets) < 2 {
		return 0
	}
	mean := meanPositive(buckets)
	var sq float64
	for _, b := range buckets {
		d := b.PositivePct - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(buckets)))
}

func (a *Aggregator) aggregate(ctx context.Context, days int, source drepo.Source) ([]*models.Bucket, error) {
	now := time.Now().UTC()
	starts := util.DayBuckets(now, days)
	from := starts[0]
	to := starts[len(starts)-1].AddDate(0, 0, 1)

	records, err := a.store.Query(ctx, source, from, to, 0)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	// Group records by UTC day.
	byDay := make(map[time.Time][]*models.SentimentRecord, days)
	for _, r := range records {
		day := util.DayStart(r.CreatedAt)
		byDay[day] = append(byDay[day], r)
	}

	buckets := make([]*models.Bucket, 0, days)
	var prev *models.Bucket
	for _, day := range starts {
		b := &models.Bucket{PeriodStart: day}
		if recs := byDay[day]; len(recs) > 0 {
			var pos, neg, neu float64
			for _, r := range recs {
				pos += r.Score.Positive
				neg += r.Score.Negative
				neu += r.Score.Neutral
			}
			n := float64(len(recs))
			b.PositivePct = pos / n
			b.NegativePct = neg / n
			b.NeutralPct = neu / n
			b.TotalCount = len(recs)
			prev = b
		} else if prev != nil {
			// Hold the previous non-empty day's percentages.
			b.PositivePct = prev.PositivePct
			b.NegativePct = prev.NegativePct
			b.NeutralPct = prev.NeutralPct
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}
