package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	"SentiPulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream implements a MentionStream backed by a filtered-stream WebSocket
// relay.
type Stream struct {
	bearerToken    string
	websocketURL   string
	rules          []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
	pingOnce  sync.Once
}

// NewStream creates a new Twitter MentionStream.
func NewStream(bearerToken, websocketURL string, rules []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.MentionStream {
	return &Stream{
		bearerToken:    bearerToken,
		websocketURL:   websocketURL,
		rules:          rules,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.bearerToken)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("twitter stream connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	s.log.Info("twitter stream connected", logger.String("url", s.websocketURL))
	return nil
}

// Subscribe registers configured filter rules.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("twitter stream not connected")
	}
	for _, r := range s.rules {
		msg := map[string]string{"type": "subscribe", "rule": r}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", r, err)
		}
		s.log.Info("twitter stream subscribed", logger.String("rule", r))
	}
	return nil
}

type streamTweet struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"created_at"`
	Metrics   tweetMetrics `json:"public_metrics"`
}

type streamMessage struct {
	Type string        `json:"type"`
	Data []streamTweet `json:"data"`
}

// Read streams RawMention events and errors. Both channels are closed when
// the read loop exits; Read may be called again after Reconnect.
func (s *Stream) Read(ctx context.Context) (<-chan *models.RawMention, <-chan error) {
	mentions := make(chan *models.RawMention, 1024)
	errs := make(chan error, 1)

	// One ping loop per stream, not per Read call.
	s.pingOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(s.pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if s.conn != nil {
						_ = s.conn.WriteMessage(websocket.PingMessage, nil)
					}
				}
			}
		}()
	})

	// read loop
	go func() {
		defer close(mentions)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("twitter stream conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("twitter stream read: %w", err)
					return
				}
				var m streamMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-mention frames
					continue
				}
				if m.Type != "tweet" {
					continue
				}
				for _, d := range m.Data {
					mention := &models.RawMention{
						ID:        d.ID,
						Text:      d.Text,
						Source:    string(drepo.SourceTwitter),
						Likes:     d.Metrics.LikeCount,
						Retweets:  d.Metrics.RetweetCount,
						Replies:   d.Metrics.ReplyCount,
						CreatedAt: d.CreatedAt,
					}
					select {
					case mentions <- mention:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return mentions, errs
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	s.log.Warn("twitter stream reconnecting", logger.Duration("delay_ms", s.reconnectDelay))
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
