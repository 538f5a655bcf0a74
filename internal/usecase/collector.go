package usecase

import (
	"context"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	mid "SentiPulse/internal/middleware"
)

// reconnectBackoff paces re-dial attempts when the stream keeps failing.
const reconnectBackoff = time.Second

// MentionCollector consumes mentions from a live stream and processes them.
type MentionCollector struct {
	stream  drepo.MentionStream
	proc    *MentionProcessor
	metrics drepo.Metrics
	pipe    *mid.MentionPipeline
}

// NewMentionCollector creates a new MentionCollector instance.
func NewMentionCollector(stream drepo.MentionStream, proc *MentionProcessor, metrics drepo.Metrics, pipe *mid.MentionPipeline) *MentionCollector {
	return &MentionCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the mention stream is connected.
func (c *MentionCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *MentionCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	mCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, mCh, errCh)
	return nil
}

// consume pumps the stream channels. The read loop closes both channels when
// it exits, so a closed channel means the connection died: drain what was
// buffered, reconnect and start a fresh Read.
func (c *MentionCollector) consume(ctx context.Context, mCh <-chan *models.RawMention, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				c.drain(ctx, mCh)
				if mCh, errCh = c.resume(ctx); mCh == nil {
					return
				}
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
			}
		case m, ok := <-mCh:
			if !ok {
				if mCh, errCh = c.resume(ctx); mCh == nil {
					return
				}
				continue
			}
			c.handle(ctx, m)
		}
	}
}

// drain processes mentions still buffered after the read loop exited.
func (c *MentionCollector) drain(ctx context.Context, mCh <-chan *models.RawMention) {
	for m := range mCh {
		c.handle(ctx, m)
	}
}

func (c *MentionCollector) handle(ctx context.Context, m *models.RawMention) {
	if m == nil {
		return
	}
	if c.pipe != nil {
		_ = c.pipe.Process(ctx, m)
	} else {
		_ = c.proc.Process(ctx, m)
	}
}

// resume re-dials the stream until it comes back, then restarts reading.
// Returns nil channels when the context is cancelled.
func (c *MentionCollector) resume(ctx context.Context) (<-chan *models.RawMention, <-chan error) {
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			select {
			case <-ctx.Done():
				return nil, nil
			case <-time.After(reconnectBackoff):
			}
			continue
		}
		return c.stream.Read(ctx)
	}
}

func (c *MentionCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying MentionProcessor for lifecycle management.
func (c *MentionCollector) Processor() *MentionProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *MentionCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
