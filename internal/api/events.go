// ABOUTME: WebSocket subscriber for backend push events such as sessions_changed
// ABOUTME: Reads JSON event frames, dispatches them to a handler, and reconnects with backoff

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harper/chatsync/internal/logger"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultBackoff     = time.Second
	maxBackoff         = 30 * time.Second
)

// EventStream keeps a WebSocket subscription open and hands every decoded
// event to its handler. Handlers run on the stream's read goroutine.
type EventStream struct {
	url               string
	handler           func(Event)
	reconnectAttempts int
	backoff           time.Duration
	dialer            *websocket.Dialer

	mu   sync.RWMutex
	conn *websocket.Conn
}

// NewEventStream creates a stream for url. reconnectAttempts bounds
// consecutive failed dials; 0 means a single attempt.
func NewEventStream(url string, reconnectAttempts int, handler func(Event)) *EventStream {
	if reconnectAttempts < 0 {
		reconnectAttempts = 0
	}
	return &EventStream{
		url:               url,
		handler:           handler,
		reconnectAttempts: reconnectAttempts,
		backoff:           defaultBackoff,
		dialer:            &websocket.Dialer{HandshakeTimeout: defaultDialTimeout},
	}
}

// SetBackoff overrides the initial delay between reconnects.
func (s *EventStream) SetBackoff(d time.Duration) {
	s.backoff = d
}

func (s *EventStream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil
}

// Run connects and reads until ctx is cancelled or reconnect attempts are
// exhausted. A connection that delivered at least one frame resets the count.
func (s *EventStream) Run(ctx context.Context) error {
	failures := 0
	delay := s.backoff

	for {
		delivered, err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if delivered {
			failures = 0
			delay = s.backoff
		} else {
			failures++
		}
		if failures > s.reconnectAttempts {
			return fmt.Errorf("event stream: giving up after %d attempts: %w", failures, err)
		}

		logger.Warn("event stream disconnected: %v (retry in %s)", err, delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
}

// session runs one connection to completion.
func (s *EventStream) session(ctx context.Context) (bool, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil) //nolint:bodyclose // websocket connection, not HTTP response
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	logger.Debug("event stream connected to %s", s.url)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
	}()

	return s.readLoop(conn)
}

func (s *EventStream) readLoop(conn *websocket.Conn) (bool, error) {
	delivered := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return delivered, fmt.Errorf("read: %w", err)
		}
		delivered = true

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Warn("event stream: skipping malformed frame: %v", err)
			continue
		}
		if s.handler != nil {
			s.handler(ev)
		}
	}
}
