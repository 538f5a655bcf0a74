package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

// newStreamRelay serves one WS connection: it consumes the subscribe
// messages, pushes a single tweet frame and drops the connection.
func newStreamRelay(t *testing.T, rules int) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for i := 0; i < rules; i++ {
			var sub map[string]string
			require.NoError(t, conn.ReadJSON(&sub))
			assert.Equal(t, "subscribe", sub["type"])
		}

		frame := streamMessage{Type: "tweet", Data: []streamTweet{{
			ID:        "t1",
			Text:      "loving the new release",
			CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Metrics:   tweetMetrics{LikeCount: 3},
		}}}
		require.NoError(t, conn.WriteJSON(frame))
	}))
}

func TestStreamDeliversMentionsThenClosesChannels(t *testing.T) {
	relay := newStreamRelay(t, 1)
	defer relay.Close()
	wsURL := "ws" + strings.TrimPrefix(relay.URL, "http")

	s := NewStream("token", wsURL, []string{"brand"}, time.Millisecond, time.Minute, testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	require.True(t, s.IsConnected())
	require.NoError(t, s.Subscribe(ctx))

	mCh, errCh := s.Read(ctx)

	select {
	case m := <-mCh:
		require.NotNil(t, m)
		assert.Equal(t, "t1", m.ID)
		assert.Equal(t, "twitter", m.Source)
		assert.Equal(t, 3, m.Likes)
	case <-time.After(2 * time.Second):
		t.Fatal("no mention delivered")
	}

	// The relay drops the connection after the frame; the read loop must
	// surface the failure and close both channels.
	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("no read error surfaced")
	}
	_, open := <-mCh
	assert.False(t, open)
	_, open = <-errCh
	assert.False(t, open)

	require.NoError(t, s.Close())
}

func TestStreamSubscribeRequiresConnection(t *testing.T) {
	s := NewStream("token", "ws://127.0.0.1:1", nil, time.Millisecond, time.Minute, testLogger(t))
	require.Error(t, s.Subscribe(context.Background()))
}
