// ABOUTME: Session controller owning the active conversation identity
// ABOUTME: Deferred creation on first send, load and delete, and supersede detection via generations

package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harper/chatsync/internal/api"
	chaterrors "github.com/harper/chatsync/internal/errors"
	"github.com/harper/chatsync/internal/logger"
)

// SessionToken captures the active view at the start of a request.
type SessionToken struct {
	Generation uint64
	SessionID  string
	// PendingCreation is set when no session exists yet; the send that
	// carries this token creates one on the backend.
	PendingCreation bool
}

type SessionController struct {
	mu         sync.RWMutex
	active     Session
	generation uint64

	store    *MessageStore
	backend  Backend
	history  *HistoryIndex
	queue    *RequestQueue
	renderer Renderer
	onSwitch []func()
	// refreshDelay is how long to wait before re-reading the session list.
	refreshDelay time.Duration
}

func NewSessionController(store *MessageStore, backend Backend, history *HistoryIndex, queue *RequestQueue, renderer Renderer, refreshDelay time.Duration) *SessionController {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &SessionController{
		store:        store,
		backend:      backend,
		history:      history,
		queue:        queue,
		renderer:     renderer,
		refreshDelay: refreshDelay,
	}
}

// OnSwitch registers fn to run after every StartNewSession and successful
// LoadSession. Callbacks run outside the controller's lock.
func (c *SessionController) OnSwitch(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSwitch = append(c.onSwitch, fn)
}

func (c *SessionController) switched() {
	c.mu.RLock()
	fns := append([]func(){}, c.onSwitch...)
	c.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// Active returns the current session. ID is empty before the first send.
func (c *SessionController) Active() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// StartNewSession drops the active session and transcript. It never
// contacts the backend and is safe to call repeatedly.
func (c *SessionController) StartNewSession() {
	c.mu.Lock()
	c.active = Session{}
	c.generation++
	c.mu.Unlock()

	c.switched()
	c.store.Clear()
	c.renderer.SessionChanged(Session{})
}

// EnsureSession is called at send time and reports whether the send will
// create the session.
func (c *SessionController) EnsureSession() SessionToken {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return SessionToken{
		Generation:      c.generation,
		SessionID:       c.active.ID,
		PendingCreation: c.active.ID == "",
	}
}

// Current reports whether token still names the active view.
func (c *SessionController) Current(token SessionToken) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation == token.Generation
}

// Promote assigns the backend id to a session created by the send holding
// token. It fails if the view changed or the session already has an id.
func (c *SessionController) Promote(token SessionToken, id, title string) bool {
	c.mu.Lock()
	if c.generation != token.Generation || c.active.ID != "" || id == "" {
		c.mu.Unlock()
		return false
	}
	c.active = Session{ID: id, Title: title}
	active := c.active
	c.mu.Unlock()

	logger.Info("session %s created", id)
	c.renderer.SessionChanged(active)
	return true
}

// LoadSession fetches a session's transcript and makes it active. On any
// failure the active session and the store are left as they were.
func (c *SessionController) LoadSession(ctx context.Context, id string) error {
	if id == "" {
		return chaterrors.NewValidationError("session", "no session selected")
	}

	c.mu.RLock()
	startGen := c.generation
	c.mu.RUnlock()

	resp, err := c.backend.LoadSession(ctx, api.ID(id))
	if err != nil {
		logger.Warn("load session %s: %v", id, err)
		return fmt.Errorf("load session: %w", err)
	}

	msgs := make([]Message, 0, len(resp.Messages))
	for _, hm := range resp.Messages {
		msgs = append(msgs, messageFromHistory(id, hm))
	}
	if err := checkUnique(msgs); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	session := Session{ID: id, Title: resp.Session.Title, MessageCount: len(msgs)}

	c.mu.Lock()
	if c.generation != startGen {
		c.mu.Unlock()
		logger.Warn("load session %s superseded", id)
		return chaterrors.ErrSuperseded
	}
	c.generation++
	token := SessionToken{Generation: c.generation, SessionID: id}
	c.active = session
	c.mu.Unlock()

	c.switched()
	err = c.store.Batch(func(tx *StoreTx) error {
		if !c.Current(token) {
			return chaterrors.ErrSuperseded
		}
		return tx.ReplaceAll(msgs)
	})
	if err != nil {
		return err
	}

	logger.Debug("loaded session %s with %d messages", id, len(msgs))
	c.renderer.SessionChanged(session)
	return nil
}

// DeleteSession removes a session on the backend. Callers obtain user
// confirmation first.
func (c *SessionController) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return chaterrors.NewValidationError("session", "no session selected")
	}

	release, err := c.queue.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := c.backend.DeleteSession(ctx, api.ID(id)); err != nil {
		logger.Warn("delete session %s: %v", id, err)
		return fmt.Errorf("delete session: %w", err)
	}

	if c.Active().ID == id {
		c.StartNewSession()
	}
	if c.history != nil {
		c.history.Forget(id)
		c.history.ScheduleRefresh(c.refreshDelay)
	}
	logger.Info("session %s deleted", id)
	return nil
}

func messageFromHistory(sessionID string, hm api.HistoryMessage) Message {
	return Message{
		ID:        hm.ID.String(),
		Role:      ParseRole(hm.Type),
		Content:   hm.Content,
		SessionID: sessionID,
		LinkedID:  hm.LinkedMessageID.String(),
		Status:    StatusConfirmed,
		Timestamp: parseTimestamp(hm.Timestamp),
	}
}
