package usecase

import (
	"context"
	"sync"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	"SentiPulse/pkg/logger"
)

func testLogger() *logger.Logger {
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordMessageSent(backend, source string) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}
func (m *fakeMetrics) RecordSentiment(source string, positive float64) {}
func (m *fakeMetrics) RecordLatency(op string, seconds float64)        {}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakeFetcher struct {
	mu       sync.Mutex
	calls    int
	mentions []*models.RawMention
	err      error
}

func (f *fakeFetcher) FetchBatch(ctx context.Context, query string, maxItems int) ([]*models.RawMention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.mentions) > maxItems {
		return f.mentions[:maxItems], nil
	}
	return f.mentions, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClassifier struct {
	raw    map[string]any
	byText map[string]map[string]any
	err    error
}

func (c *fakeClassifier) Analyze(ctx context.Context, text string) (map[string]any, error) {
	if c.err != nil {
		return nil, c.err
	}
	if raw, ok := c.byText[text]; ok {
		return raw, nil
	}
	return c.raw, nil
}

type fakeModel struct {
	points []models.ModelPoint
	err    error
}

func (m *fakeModel) Predict(ctx context.Context, series []float64, horizon int) ([]models.ModelPoint, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.points) >= horizon {
		return m.points[:horizon], nil
	}
	return m.points, nil
}

type fakeStore struct {
	mu       sync.Mutex
	records  []*models.SentimentRecord
	batch    []*models.PredictionPoint
	span     int
	queryErr error
	spanErr  error
	batchErr error
	stored   [][]*models.PredictionPoint
}

func (s *fakeStore) Init(ctx context.Context) error { return nil }

func (s *fakeStore) Store(ctx context.Context, r *models.SentimentRecord) error {
	return s.StoreBatch(ctx, []*models.SentimentRecord{r})
}

func (s *fakeStore) StoreBatch(ctx context.Context, recs []*models.SentimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, recs...)
	return nil
}

func (s *fakeStore) Query(ctx context.Context, source drepo.Source, from, to time.Time, limit int) ([]*models.SentimentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []*models.SentimentRecord
	for _, r := range s.records {
		if source != drepo.SourceAll && r.Source != string(source) {
			continue
		}
		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) HistorySpanDays(ctx context.Context) (int, error) {
	if s.spanErr != nil {
		return 0, s.spanErr
	}
	return s.span, nil
}

func (s *fakeStore) LatestPredictionBatch(ctx context.Context, minHorizonDays int) ([]*models.PredictionPoint, error) {
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	if len(s.batch) < minHorizonDays {
		return nil, nil
	}
	return s.batch, nil
}

func (s *fakeStore) StorePredictionBatch(ctx context.Context, pts []*models.PredictionPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, pts)
	return nil
}

func (s *fakeStore) Health(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                     { return nil }

func (s *fakeStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// streamRound scripts one Read call: buffered mentions, an optional error,
// and whether the channels close afterwards (a dead connection) or stay open.
type streamRound struct {
	mentions []*models.RawMention
	err      error
	stayOpen bool
}

type fakeStream struct {
	mu           sync.Mutex
	connected    bool
	reads        int
	reconnects   int
	script       []streamRound
	alwaysClosed bool // rounds past the script also close immediately
}

func (s *fakeStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *fakeStream) Subscribe(ctx context.Context) error { return nil }

func (s *fakeStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	s.connected = true
	return nil
}

func (s *fakeStream) Read(ctx context.Context) (<-chan *models.RawMention, <-chan error) {
	s.mu.Lock()
	idx := s.reads
	s.reads++
	round := streamRound{stayOpen: !s.alwaysClosed}
	if idx < len(s.script) {
		round = s.script[idx]
	}
	s.mu.Unlock()

	mCh := make(chan *models.RawMention, len(round.mentions)+1)
	errCh := make(chan error, 1)
	for _, m := range round.mentions {
		mCh <- m
	}
	if round.err != nil {
		errCh <- round.err
	}
	if !round.stayOpen {
		close(errCh)
		close(mCh)
	}
	return mCh, errCh
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeStream) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *fakeStream) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.SentimentRecord
}

func (p *fakePublisher) Publish(ctx context.Context, r *models.SentimentRecord) error {
	return p.PublishBatch(ctx, []*models.SentimentRecord{r})
}

func (p *fakePublisher) PublishBatch(ctx context.Context, recs []*models.SentimentRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, recs...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }
