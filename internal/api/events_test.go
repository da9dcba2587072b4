package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/api/apitest"
)

type eventLog struct {
	mu     sync.Mutex
	events []api.Event
}

func (l *eventLog) add(ev api.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) first() api.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[0]
}

func (l *eventLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func TestEventStreamDeliversSessionChanges(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	var got eventLog
	stream := api.NewEventStream(srv.EventsURL(), 0, got.add)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- stream.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Listeners() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, stream.IsConnected())

	_, err := api.NewClient(srv.URL).SendMessage(context.Background(), "Hi", "")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return got.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, api.EventSessionsChanged, got.first().Type)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEventStreamSkipsMalformedFrames(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("garbage"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"sessions_changed"}`))
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	var got eventLog
	stream := api.NewEventStream("ws"+strings.TrimPrefix(server.URL, "http"), 0, got.add)
	stream.SetBackoff(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() { _ = stream.Run(ctx) }()
	require.Eventually(t, func() bool { return got.len() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, api.EventSessionsChanged, got.first().Type)
}

func TestEventStreamGivesUp(t *testing.T) {
	stream := api.NewEventStream("ws://127.0.0.1:1/ws", 1, nil)
	stream.SetBackoff(5 * time.Millisecond)

	err := stream.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 2 attempts")
	assert.False(t, stream.IsConnected())
}
