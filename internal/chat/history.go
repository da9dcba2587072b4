// ABOUTME: Sidebar projection of all sessions, refreshed from the backend and cached locally
// ABOUTME: Stale-but-available on failure, with debounced refresh scheduling

package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harper/chatsync/internal/db"
	"github.com/harper/chatsync/internal/logger"
)

// HistoryIndex is a read-only projection of the backend's session list. It
// is never authoritative.
type HistoryIndex struct {
	mu          sync.RWMutex
	sessions    []Session
	refreshedAt time.Time
	lastErr     error

	backend  Backend
	cache    SessionCache
	renderer Renderer

	refreshMu sync.Mutex
	notifyMu  sync.Mutex

	timerMu sync.Mutex
	timer   *time.Timer
	// base scopes scheduled refreshes; cancelled by Stop.
	base   context.Context
	cancel context.CancelFunc
}

// NewHistoryIndex creates an index. cache may be nil.
func NewHistoryIndex(backend Backend, cache SessionCache, renderer Renderer) *HistoryIndex {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	base, cancel := context.WithCancel(context.Background())
	return &HistoryIndex{
		backend:  backend,
		cache:    cache,
		renderer: renderer,
		base:     base,
		cancel:   cancel,
	}
}

// Seed loads the cached projection so the sidebar has content before the
// first refresh completes.
func (h *HistoryIndex) Seed() error {
	if h.cache == nil {
		return nil
	}
	cached, err := h.cache.LoadSessions()
	if err != nil {
		return fmt.Errorf("seed history: %w", err)
	}
	sessions := make([]Session, 0, len(cached))
	for _, c := range cached {
		sessions = append(sessions, Session{ID: c.ID, Title: c.Title, UpdatedAt: c.UpdatedAt, MessageCount: c.MessageCount})
	}
	at, ok, err := h.cache.LastRefresh()
	if err != nil {
		logger.Warn("read cache refresh time: %v", err)
	}

	h.mu.Lock()
	h.sessions = sessions
	if ok && h.refreshedAt.IsZero() {
		h.refreshedAt = at
	}
	h.mu.Unlock()
	h.notify()

	logger.Debug("history seeded with %d cached sessions", len(sessions))
	return nil
}

// Refresh re-reads the session list. On failure the previous projection
// stays visible and the error is logged and returned.
func (h *HistoryIndex) Refresh(ctx context.Context) error {
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()

	infos, err := h.backend.ListSessions(ctx)
	if err != nil {
		h.mu.Lock()
		h.lastErr = err
		h.mu.Unlock()
		logger.Warn("refresh history: %v (keeping previous list)", err)
		return fmt.Errorf("refresh history: %w", err)
	}

	sessions := make([]Session, 0, len(infos))
	for _, info := range infos {
		if info.ID == "" {
			continue
		}
		sessions = append(sessions, Session{
			ID:           info.ID.String(),
			Title:        info.Title,
			UpdatedAt:    info.UpdatedAt,
			MessageCount: info.MessageCount,
		})
	}

	h.mu.Lock()
	h.sessions = sessions
	h.refreshedAt = time.Now()
	h.lastErr = nil
	h.mu.Unlock()
	h.notify()

	if h.cache != nil {
		rows := make([]db.Session, 0, len(sessions))
		for _, s := range sessions {
			rows = append(rows, db.Session{ID: s.ID, Title: s.Title, UpdatedAt: s.UpdatedAt, MessageCount: s.MessageCount})
		}
		if err := h.cache.SaveSessions(rows); err != nil {
			logger.Warn("cache history: %v", err)
		}
	}
	return nil
}

// ScheduleRefresh refreshes after delay. Scheduling again before it fires
// restarts the wait, so bursts collapse into one request.
func (h *HistoryIndex) ScheduleRefresh(delay time.Duration) {
	h.timerMu.Lock()
	defer h.timerMu.Unlock()

	if h.base.Err() != nil {
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(delay, func() {
		_ = h.Refresh(h.base)
	})
}

// Forget drops a session from the projection ahead of the next refresh.
func (h *HistoryIndex) Forget(id string) {
	h.mu.Lock()
	kept := make([]Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	found := len(kept) != len(h.sessions)
	if found {
		h.sessions = kept
	}
	h.mu.Unlock()

	if found {
		h.notify()
	}
}

// Stop cancels any scheduled refresh.
func (h *HistoryIndex) Stop() {
	h.timerMu.Lock()
	defer h.timerMu.Unlock()
	h.cancel()
	if h.timer != nil {
		h.timer.Stop()
	}
}

func (h *HistoryIndex) Sessions() []Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Session, len(h.sessions))
	copy(out, h.sessions)
	return out
}

// Lookup finds a session in the projection.
func (h *HistoryIndex) Lookup(id string) (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}

// Status reports when the last successful refresh happened and the error
// from the most recent attempt, if it failed.
func (h *HistoryIndex) Status() (time.Time, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.refreshedAt, h.lastErr
}

// notify sends the current projection. Notifications are serialized and
// read the list at send time, so the last one delivered is never stale.
func (h *HistoryIndex) notify() {
	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()
	h.renderer.HistoryChanged(h.Sessions())
}
