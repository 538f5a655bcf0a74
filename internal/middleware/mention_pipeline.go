package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SentiPulse/internal/domain/models"
	domrepo "SentiPulse/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, m *models.RawMention) error
}

// MentionPipeline is a middleware between the mention stream and the
// processor. It validates, throttles per source, and buffers when
// downstream is unavailable.
type MentionPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.RawMention
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-source last accepted time
}

type PipelineOption func(*MentionPipeline)

// WithMaxRPS sets the max mentions per second per source.
func WithMaxRPS(n int) PipelineOption {
	return func(p *MentionPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *MentionPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewMentionPipeline creates a new pipeline.
func NewMentionPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *MentionPipeline {
	p := &MentionPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per source
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.RawMention, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.RawMention, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered mentions.
func (p *MentionPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case m := <-p.bufCh:
				if m == nil {
					continue
				}
				if err := p.proc.Process(ctx, m); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- m:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *MentionPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards the mention downstream,
// buffering on errors.
func (p *MentionPipeline) Process(ctx context.Context, m *models.RawMention) error {
	start := time.Now()
	if err := validateMention(m); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(m.Source, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, m); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- m:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateMention(m *models.RawMention) error {
	if m == nil {
		return fmt.Errorf("mention nil")
	}
	if m.Text == "" {
		return fmt.Errorf("text empty")
	}
	if m.Source == "" {
		return fmt.Errorf("source empty")
	}
	return nil
}

func (p *MentionPipeline) allow(source string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[source]
	if last.IsZero() {
		p.lastSeen[source] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[source] = now
	return true
}
