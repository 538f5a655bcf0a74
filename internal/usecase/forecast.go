package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	domsvc "SentiPulse/internal/domain/service"
	"SentiPulse/pkg/cache"
	"SentiPulse/pkg/logger"
	"SentiPulse/pkg/util"
)

const (
	// MinHistoryDays gates the live forecasting path.
	MinHistoryDays = 45

	// MaxForecastDays bounds a single forecast request.
	MaxForecastDays = 30

	// DefaultForecastTTL caches forecast batches.
	DefaultForecastTTL = 3600 * time.Second

	// Ensemble weights. The sequence model is favored for short horizons.
	seqWeight   = 0.6
	trendWeight = 0.4

	// Series length cap for model input.
	maxSeriesDays = 180

	// Alert thresholds: a predicted positive share under the floor with
	// confidence above the minimum flags a negative spike.
	alertPositiveFloor = 40.0
	alertConfidenceMin = 0.7
)

// Forecaster produces N-day-ahead sentiment predictions by combining two
// forecasting models, degrading to stored and then synthetic batches when
// live modeling cannot run.
type Forecaster struct {
	gate     *cache.Gate
	store    drepo.RecordStore
	seqModel domsvc.SequenceModel
	trend    domsvc.TrendModel
	metrics  drepo.Metrics
	log      *logger.Logger
	ttl      time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewForecaster creates the forecast ensemble engine.
func NewForecaster(
	gate *cache.Gate,
	store drepo.RecordStore,
	seqModel domsvc.SequenceModel,
	trend domsvc.TrendModel,
	metrics drepo.Metrics,
	log *logger.Logger,
	ttl time.Duration,
) *Forecaster {
	if ttl <= 0 {
		ttl = DefaultForecastTTL
	}
	return &Forecaster{
		gate:     gate,
		store:    store,
		seqModel: seqModel,
		trend:    trend,
		metrics:  metrics,
		log:      log,
		ttl:      ttl,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Forecast returns exactly days prediction points with strictly increasing
// dates starting tomorrow. Fallback chain: live ensemble, then the most
// recent stored batch, then a synthetic series. This operation never fails.
func (f *Forecaster) Forecast(ctx context.Context, days int) []*models.PredictionPoint {
	if days < 1 {
		days = 1
	}
	if days > MaxForecastDays {
		days = MaxForecastDays
	}

	key := cache.Key("forecast", days)
	start := time.Now()
	points := SafeCall(ctx, f.log, "forecast", "ensemble",
		func(ctx context.Context) ([]*models.PredictionPoint, error) {
			return cache.GetOrCompute(ctx, f.gate, key, f.ttl, func(ctx context.Context) ([]*models.PredictionPoint, error) {
				return f.compute(ctx, days)
			})
		},
		func() []*models.PredictionPoint {
			f.metrics.RecordError("forecast_fallback")
			return f.synthetic(ctx, days)
		},
	)
	f.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	return points
}

// Alerts scans the forecast horizon for high-confidence negative spikes.
// Inherits Forecast's fallback chain, so it never fails either.
func (f *Forecaster) Alerts(ctx context.Context, days int) []*models.Alert {
	alerts := make([]*models.Alert, 0)
	for _, p := range f.Forecast(ctx, days) {
		if p.Predicted < alertPositiveFloor && p.Confidence > alertConfidenceMin {
			alerts = append(alerts, &models.Alert{
				Severity:   "high",
				Type:       "negative_spike",
				Date:       p.Date,
				Confidence: p.Confidence,
				Message:    fmt.Sprintf("Low positive sentiment predicted (%.1f%%)", p.Predicted),
			})
		}
	}
	return alerts
}

// compute tries the live ensemble, then the stored batch. Its error feeds
// the synthetic last resort in SafeCall.
func (f *Forecaster) compute(ctx context.Context, days int) ([]*models.PredictionPoint, error) {
	points, liveErr := f.live(ctx, days)
	if liveErr == nil {
		return points, nil
	}
	f.log.Warn("live forecast unavailable, trying stored batch", logger.Int("days", days), logger.Error(liveErr))
	f.metrics.RecordError("forecast_live")

	stored, storedErr := f.stored(ctx, days)
	if storedErr == nil {
		return stored, nil
	}
	return nil, fmt.Errorf("live: %v; stored: %w", liveErr, storedErr)
}

// live runs both models over the daily positive-percentage series and
// combines them: weighted average of points, union of uncertainty bands.
func (f *Forecaster) live(ctx context.Context, days int) ([]*models.PredictionPoint, error) {
	span, err := f.store.HistorySpanDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("history span: %w", err)
	}
	if span < MinHistoryDays {
		return nil, fmt.Errorf("%w: have %d days, need %d", domsvc.ErrInsufficientHistory, span, MinHistoryDays)
	}

	series, err := f.positiveSeries(ctx, span)
	if err != nil {
		return nil, err
	}

	seqPts, err := f.seqModel.Predict(ctx, series, days)
	if err != nil {
		return nil, fmt.Errorf("sequence model: %w", err)
	}
	trendPts, err := f.trend.Predict(ctx, series, days)
	if err != nil {
		return nil, fmt.Errorf("trend model: %w", err)
	}

	tomorrow := util.DayStart(time.Now().UTC()).AddDate(0, 0, 1)
	points := make([]*models.PredictionPoint, days)
	for i := 0; i < days; i++ {
		predicted := clampPct(seqWeight*seqPts[i].Point + trendWeight*trendPts[i].Point)
		lower := minFloat(seqPts[i].Lower, trendPts[i].Lower)
		upper := maxFloat(seqPts[i].Upper, trendPts[i].Upper)
		if lower > predicted {
			lower = predicted
		}
		if upper < predicted {
			upper = predicted
		}
		points[i] = &models.PredictionPoint{
			Date:        tomorrow.AddDate(0, 0, i),
			Predicted:   predicted,
			Lower:       lower,
			Upper:       upper,
			Confidence:  clampUnit(1 - (upper-lower)/100),
			ModelSource: models.ModelSourceLive,
		}
	}

	// Keep the stored fallback warm for future requests.
	if err := f.store.StorePredictionBatch(ctx, points); err != nil {
		f.metrics.RecordError("store_predictions")
		f.log.Warn("store prediction batch failed", logger.Int("days", days), logger.Error(err))
	}
	return points, nil
}

// stored returns the most recent persisted batch covering the horizon,
// verbatim apart from the model source tag.
func (f *Forecaster) stored(ctx context.Context, days int) ([]*models.PredictionPoint, error) {
	batch, err := f.store.LatestPredictionBatch(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("latest prediction batch: %w", err)
	}
	if len(batch) < days {
		return nil, fmt.Errorf("no stored batch covers %d days", days)
	}
	points := make([]*models.PredictionPoint, days)
	for i := 0; i < days; i++ {
		p := *batch[i]
		p.ModelSource = models.ModelSourceStored
		points[i] = &p
	}
	return points, nil
}

// synthetic builds a mildly upward-trending random walk seeded from the last
// known historical positive percentage, so the API always returns a
// well-formed, non-empty series.
func (f *Forecaster) synthetic(ctx context.Context, days int) []*models.PredictionPoint {
	seed := f.lastKnownPositive(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()

	tomorrow := util.DayStart(time.Now().UTC()).AddDate(0, 0, 1)
	points := make([]*models.PredictionPoint, days)
	v := seed
	for i := 0; i < days; i++ {
		v = clampPct(v + f.rnd.Float64()*1.5 - 0.5)
		lower := clampPct(v - 5)
		upper := clampPct(v + 5)
		points[i] = &models.PredictionPoint{
			Date:        tomorrow.AddDate(0, 0, i),
			Predicted:   v,
			Lower:       lower,
			Upper:       upper,
			Confidence:  clampUnit(1 - (upper-lower)/100),
			ModelSource: models.ModelSourceSynthetic,
		}
	}
	return points
}

// lastKnownPositive reads the most recent record's positive percentage,
// defaulting to a neutral 50 when the store is empty or unreachable.
func (f *Forecaster) lastKnownPositive(ctx context.Context) float64 {
	now := time.Now().UTC()
	records, err := f.store.Query(ctx, drepo.SourceAll, now.AddDate(0, 0, -7), now, 1)
	if err != nil || len(records) == 0 {
		return 50
	}
	return records[len(records)-1].Score.Positive
}

// positiveSeries builds a contiguous daily positive-percentage series over
// the trailing span days. Empty days hold the previous value so the models
// see no gaps.
func (f *Forecaster) positiveSeries(ctx context.Context, span int) ([]float64, error) {
	if span > maxSeriesDays {
		span = maxSeriesDays
	}
	now := time.Now().UTC()
	starts := util.DayBuckets(now, span)
	from := starts[0]
	to := starts[len(starts)-1].AddDate(0, 0, 1)

	records, err := f.store.Query(ctx, drepo.SourceAll, from, to, 0)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	sums := make(map[time.Time]float64, span)
	counts := make(map[time.Time]int, span)
	for _, r := range records {
		day := util.DayStart(r.CreatedAt)
		sums[day] += r.Score.Positive
		counts[day]++
	}

	series := make([]float64, 0, span)
	last := 50.0
	for _, day := range starts {
		if n := counts[day]; n > 0 {
			last = sums[day] / float64(n)
		}
		series = append(series, last)
	}
	return series, nil
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
