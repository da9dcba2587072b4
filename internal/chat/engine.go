// ABOUTME: Wires the chat core together around one store, queue, and backend
// ABOUTME: Entry point used by the TUI and the headless commands

package chat

import (
	"context"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/logger"
)

type Options struct {
	Backend  Backend
	Renderer Renderer
	// Cache is optional.
	Cache     SessionCache
	Pacing    Pacing
	ExportDir string
}

// Engine is the application state: every component shares its store,
// session controller, and request queue.
type Engine struct {
	Store    *MessageStore
	Sessions *SessionController
	Pipeline *Pipeline
	Cascade  *Cascade
	History  *HistoryIndex
	Exporter *Exporter

	backend Backend
	queue   *RequestQueue
}

func NewEngine(opts Options) *Engine {
	renderer := opts.Renderer
	if renderer == nil {
		renderer = NopRenderer{}
	}

	store := NewMessageStore()
	store.SetListener(renderer.MessagesChanged)
	queue := NewRequestQueue()
	history := NewHistoryIndex(opts.Backend, opts.Cache, renderer)
	sessions := NewSessionController(store, opts.Backend, history, queue, renderer, opts.Pacing.HistoryRefreshDelay)

	return &Engine{
		Store:    store,
		Sessions: sessions,
		Pipeline: NewPipeline(sessions, store, opts.Backend, history, queue, opts.Pacing),
		Cascade:  NewCascade(sessions, store, opts.Backend, queue, opts.Pacing),
		History:  history,
		Exporter: NewExporter(opts.Backend, opts.ExportDir),
		backend:  opts.Backend,
		queue:    queue,
	}
}

// Start seeds the sidebar from the cache and refreshes it from the backend.
// A failed refresh leaves the cached list in place.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.History.Seed(); err != nil {
		logger.Warn("%v", err)
	}
	return e.History.Refresh(ctx)
}

// Send is shorthand for Pipeline.Send.
func (e *Engine) Send(ctx context.Context, text string) (*SendResult, error) {
	return e.Pipeline.Send(ctx, text)
}

// Search runs an in-transcript search over the current messages.
func (e *Engine) Search(query string) SearchResult {
	return Search(e.Store.Snapshot(), query)
}

// RemoteSearch searches the backend, scoped to the active session when
// allSessions is false.
func (e *Engine) RemoteSearch(ctx context.Context, query string, allSessions bool) ([]RemoteHit, error) {
	sessionID := ""
	if !allSessions {
		sessionID = e.Sessions.Active().ID
	}
	return RemoteSearch(ctx, e.backend, query, sessionID)
}

// ExportActive exports the active session.
func (e *Engine) ExportActive(ctx context.Context, format string) (string, error) {
	return e.Exporter.Export(ctx, e.Sessions.Active().ID, format)
}

// HandleEvent reacts to a backend push event.
func (e *Engine) HandleEvent(ev api.Event) {
	switch ev.Type {
	case api.EventSessionsChanged:
		e.History.ScheduleRefresh(0)
	default:
		logger.Debug("ignoring event %q", ev.Type)
	}
}

// Busy reports whether a mutating request is in flight.
func (e *Engine) Busy() bool {
	return e.queue.Busy()
}

// Close stops background work.
func (e *Engine) Close() {
	e.History.Stop()
}
