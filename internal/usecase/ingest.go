package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	domsvc "SentiPulse/internal/domain/service"
	"SentiPulse/internal/service/ratelimit"
	"SentiPulse/internal/service/sentiment"
	"SentiPulse/internal/service/twitter"
	"SentiPulse/pkg/cache"
	"SentiPulse/pkg/logger"
)

// Default TTLs for the ingestion cache keys.
const (
	DefaultRecentTTL  = 120 * time.Second
	DefaultAnalyzeTTL = 3600 * time.Second
)

// MaxBatchTexts bounds one AnalyzeBatch call.
const MaxBatchTexts = 1000

// Ingestor serves recent-sentiment requests: cache gate in front of a paced
// upstream fetch, classification and strict normalization, with a synthetic
// fallback so the operation never fails.
type Ingestor struct {
	gate       *cache.Gate
	pacer      *ratelimit.Pacer
	fetcher    drepo.MentionFetcher
	classifier domsvc.Classifier
	normalizer *sentiment.Normalizer
	store      drepo.RecordStore // optional, best-effort persistence
	publisher  drepo.Publisher   // optional, best-effort publish
	metrics    drepo.Metrics
	log        *logger.Logger

	recentTTL  time.Duration
	analyzeTTL time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithRecentTTL overrides the recent-lookup cache TTL.
func WithRecentTTL(ttl time.Duration) IngestorOption {
	return func(i *Ingestor) {
		if ttl > 0 {
			i.recentTTL = ttl
		}
	}
}

// WithAnalyzeTTL overrides the single-text analysis cache TTL.
func WithAnalyzeTTL(ttl time.Duration) IngestorOption {
	return func(i *Ingestor) {
		if ttl > 0 {
			i.analyzeTTL = ttl
		}
	}
}

// WithPersistence enables best-effort record persistence and publishing.
func WithPersistence(store drepo.RecordStore, publisher drepo.Publisher) IngestorOption {
	return func(i *Ingestor) {
		i.store = store
		i.publisher = publisher
	}
}

// NewIngestor creates the ingestion orchestrator.
func NewIngestor(
	gate *cache.Gate,
	pacer *ratelimit.Pacer,
	fetcher drepo.MentionFetcher,
	classifier domsvc.Classifier,
	normalizer *sentiment.Normalizer,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...IngestorOption,
) *Ingestor {
	i := &Ingestor{
		gate:       gate,
		pacer:      pacer,
		fetcher:    fetcher,
		classifier: classifier,
		normalizer: normalizer,
		metrics:    metrics,
		log:        log,
		recentTTL:  DefaultRecentTTL,
		analyzeTTL: DefaultAnalyzeTTL,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// FetchRecent returns up to limit recent classified records for source,
// most-recent-last. Served from cache within the TTL window; on a miss the
// upstream call is paced, classified and normalized. Any failure along the
// way degrades to synthetic records. This operation never fails.
func (i *Ingestor) FetchRecent(ctx context.Context, source, query string, limit int) []*models.SentimentRecord {
	if limit <= 0 {
		limit = twitter.MaxBatchSize
	}
	key := cache.Key("recent", source, query, limit)

	start := time.Now()
	records := SafeCall(ctx, i.log, "fetch_recent", source,
		func(ctx context.Context) ([]*models.SentimentRecord, error) {
			return cache.GetOrCompute(ctx, i.gate, key, i.recentTTL, func(ctx context.Context) ([]*models.SentimentRecord, error) {
				return i.fetchLive(ctx, source, query, limit)
			})
		},
		func() []*models.SentimentRecord {
			i.metrics.RecordError("ingest_fallback")
			return i.syntheticRecords(source, limit)
		},
	)
	i.metrics.RecordLatency("fetch_recent", time.Since(start).Seconds())
	return records
}

// fetchLive performs the paced upstream fetch and classifies every item.
// A malformed classifier score fails the whole batch; the caller's fallback
// keeps FetchRecent total.
func (i *Ingestor) fetchLive(ctx context.Context, source, query string, limit int) ([]*models.SentimentRecord, error) {
	if err := i.pacer.Acquire(ctx, source); err != nil {
		return nil, fmt.Errorf("pace %s: %w", source, err)
	}

	// Upstream batch size is capped independently of the caller's limit.
	batch := limit
	if batch > twitter.MaxBatchSize {
		batch = twitter.MaxBatchSize
	}
	mentions, err := i.fetcher.FetchBatch(ctx, query, batch)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	if len(mentions) == 0 {
		return nil, fmt.Errorf("fetch batch: %w: empty result", domsvc.ErrUpstreamUnavailable)
	}

	records := make([]*models.SentimentRecord, 0, len(mentions))
	for _, m := range mentions {
		rec, err := i.classify(ctx, m.Text, source, m.CreatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	i.persist(ctx, records)
	return records, nil
}

// AnalyzeText classifies a single text on demand. Unlike FetchRecent this
// surfaces MalformedScoreError to the caller as a data-quality signal.
// Results are cached by text fingerprint.
func (i *Ingestor) AnalyzeText(ctx context.Context, text, source string) (*models.SentimentRecord, error) {
	key := cache.Key("analyze", models.Fingerprint(text))
	rec, err := cache.GetOrCompute(ctx, i.gate, key, i.analyzeTTL, func(ctx context.Context) (*models.SentimentRecord, error) {
		rec, err := i.classify(ctx, text, source, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		i.persist(ctx, []*models.SentimentRecord{rec})
		return rec, nil
	})
	if err != nil {
		i.metrics.RecordError("analyze_text")
		return nil, err
	}
	return rec, nil
}

// AnalyzeBatch classifies up to MaxBatchTexts texts, tolerating per-item
// failures: a text that fails classification is counted in Failed and the
// rest of the batch proceeds.
func (i *Ingestor) AnalyzeBatch(ctx context.Context, texts []string, source string) *models.BatchAnalysis {
	if len(texts) > MaxBatchTexts {
		texts = texts[:MaxBatchTexts]
	}
	out := &models.BatchAnalysis{
		Total:   len(texts),
		Results: make([]*models.SentimentRecord, 0, len(texts)),
	}
	for _, text := range texts {
		rec, err := i.AnalyzeText(ctx, text, source)
		if err != nil {
			out.Failed++
			i.log.Warn("batch item failed", logger.String("source", source), logger.Error(err))
			continue
		}
		out.Results = append(out.Results, rec)
		switch rec.Dominant {
		case "positive":
			out.Summary.Positive++
		case "negative":
			out.Summary.Negative++
		default:
			out.Summary.Neutral++
		}
	}
	return out
}

func (i *Ingestor) classify(ctx context.Context, text, source string, createdAt time.Time) (*models.SentimentRecord, error) {
	raw, err := i.classifier.Analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	score, err := i.normalizer.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return &models.SentimentRecord{
		ID:              uuid.NewString(),
		Source:          source,
		TextFingerprint: models.Fingerprint(text),
		Score:           score,
		Dominant:        score.Dominant(),
		Confidence:      sentiment.Confidence(raw, score),
		CreatedAt:       createdAt,
	}, nil
}

// persist stores and publishes records best-effort. Failures are logged and
// never fail the request.
func (i *Ingestor) persist(ctx context.Context, records []*models.SentimentRecord) {
	if i.store != nil {
		if err := i.store.StoreBatch(ctx, records); err != nil {
			i.metrics.RecordError("store_records")
			i.log.Warn("store records failed", logger.Int("count", len(records)), logger.Error(err))
		}
	}
	if i.publisher != nil {
		if err := i.publisher.PublishBatch(ctx, records); err != nil {
			i.metrics.RecordError("publish_records")
			i.log.Warn("publish records failed", logger.Int("count", len(records)), logger.Error(err))
		}
	}
	for _, r := range records {
		i.metrics.RecordSentiment(r.Source, r.Score.Positive)
	}
}

// syntheticRecords produces limit plausible records, most-recent-last.
// Never persisted and clearly flagged.
func (i *Ingestor) syntheticRecords(source string, limit int) []*models.SentimentRecord {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now().UTC()
	records := make([]*models.SentimentRecord, 0, limit)
	for n := 0; n < limit; n++ {
		score := i.normalizer.SyntheticScore()
		createdAt := now.Add(-time.Duration(limit-1-n) * time.Minute)
		records = append(records, &models.SentimentRecord{
			ID:              uuid.NewString(),
			Source:          source,
			TextFingerprint: models.Fingerprint(fmt.Sprintf("synthetic:%s:%d:%d", source, now.UnixNano(), n)),
			Score:           score,
			Dominant:        score.Dominant(),
			Confidence:      0.3 + i.rnd.Float64()*0.2,
			Synthetic:       true,
			CreatedAt:       createdAt,
		})
	}
	return records
}
