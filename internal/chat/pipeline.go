// ABOUTME: Send pipeline: validate, call the backend, then append the confirmed exchange
// ABOUTME: Nothing reaches the store before the backend answers; stale answers are discarded

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harper/chatsync/internal/api"
	chaterrors "github.com/harper/chatsync/internal/errors"
	"github.com/harper/chatsync/internal/logger"
)

// Pacing holds cosmetic delays. Zero disables a delay.
type Pacing struct {
	RevealDelay         time.Duration
	RegenerateDelay     time.Duration
	HistoryRefreshDelay time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{
		RevealDelay:         500 * time.Millisecond,
		RegenerateDelay:     800 * time.Millisecond,
		HistoryRefreshDelay: 500 * time.Millisecond,
	}
}

type SendResult struct {
	SessionID   string
	UserMessage Message
	BotMessage  Message
	// NewSession is set when this send created the session.
	NewSession bool
}

type Pipeline struct {
	sessions *SessionController
	store    *MessageStore
	backend  Backend
	history  *HistoryIndex
	queue    *RequestQueue
	pacing   Pacing
}

func NewPipeline(sessions *SessionController, store *MessageStore, backend Backend, history *HistoryIndex, queue *RequestQueue, pacing Pacing) *Pipeline {
	return &Pipeline{
		sessions: sessions,
		store:    store,
		backend:  backend,
		history:  history,
		queue:    queue,
		pacing:   pacing,
	}
}

// Send delivers text and appends the confirmed user message followed, after
// the reveal delay, by the linked bot reply. On error the store is untouched.
func (p *Pipeline) Send(ctx context.Context, text string) (*SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, chaterrors.NewValidationError("message", "message cannot be empty")
	}

	release, err := p.queue.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	trace := NewTempID()
	token := p.sessions.EnsureSession()
	logger.Debug("send %s: session=%q pending_creation=%t", trace, token.SessionID, token.PendingCreation)

	resp, err := p.backend.SendMessage(ctx, text, api.ID(token.SessionID))
	if err != nil {
		logger.Warn("send %s failed: %v", trace, err)
		return nil, fmt.Errorf("send message: %w", err)
	}
	if err := validateSendResponse(resp, token); err != nil {
		logger.Warn("send %s: %v", trace, err)
		return nil, err
	}

	sessionID := resp.SessionID.String()
	if sessionID == "" {
		sessionID = token.SessionID
	}
	if !token.PendingCreation && sessionID != token.SessionID {
		logger.Warn("send %s: backend answered for session %s, expected %s", trace, sessionID, token.SessionID)
	}

	if !p.sessions.Current(token) {
		p.supersededSend(trace, token)
		return nil, chaterrors.ErrSuperseded
	}

	newSession := token.PendingCreation
	if newSession {
		if !p.sessions.Promote(token, sessionID, titleFor(text)) {
			p.supersededSend(trace, token)
			return nil, chaterrors.ErrSuperseded
		}
		token.SessionID = sessionID
		p.scheduleHistoryRefresh()
	}

	user := Message{
		ID:        resp.UserMessage.ID.String(),
		Role:      RoleUser,
		Content:   resp.UserMessage.Content,
		SessionID: sessionID,
		LinkedID:  resp.BotMessage.ID.String(),
		Status:    StatusConfirmed,
		Timestamp: parseTimestamp(resp.UserMessage.Timestamp),
	}
	if user.Content == "" {
		user.Content = text
	}
	bot := Message{
		ID:        resp.BotMessage.ID.String(),
		Role:      RoleBot,
		Content:   resp.BotMessage.Content,
		SessionID: sessionID,
		LinkedID:  user.ID,
		Status:    StatusConfirmed,
		Timestamp: parseTimestamp(resp.BotMessage.Timestamp),
	}

	if err := p.appendIfCurrent(token, user); err != nil {
		return nil, err
	}

	pause(ctx, p.pacing.RevealDelay)

	if err := p.appendIfCurrent(token, bot); err != nil {
		return nil, err
	}

	logger.Debug("send %s: appended %s and %s", trace, user.ID, bot.ID)
	return &SendResult{SessionID: sessionID, UserMessage: user, BotMessage: bot, NewSession: newSession}, nil
}

func (p *Pipeline) appendIfCurrent(token SessionToken, msg Message) error {
	return p.store.Batch(func(tx *StoreTx) error {
		if !p.sessions.Current(token) {
			return chaterrors.ErrSuperseded
		}
		return tx.Append(msg)
	})
}

// supersededSend still refreshes history when the discarded reply created a
// session, since that session now exists on the backend.
func (p *Pipeline) supersededSend(trace string, token SessionToken) {
	logger.Warn("send %s: view changed before the reply arrived; discarding", trace)
	if token.PendingCreation {
		p.scheduleHistoryRefresh()
	}
}

func (p *Pipeline) scheduleHistoryRefresh() {
	if p.history != nil {
		p.history.ScheduleRefresh(p.pacing.HistoryRefreshDelay)
	}
}

func validateSendResponse(resp *api.SendResponse, token SessionToken) error {
	switch {
	case resp.UserMessage == nil || resp.UserMessage.ID == "":
		return chaterrors.NewTransportError("send message", 0, fmt.Errorf("malformed response: missing user_message"))
	case resp.BotMessage == nil || resp.BotMessage.ID == "":
		return chaterrors.NewTransportError("send message", 0, fmt.Errorf("malformed response: missing bot_message"))
	case resp.SessionID == "" && token.SessionID == "":
		return chaterrors.NewTransportError("send message", 0, fmt.Errorf("malformed response: missing session_id"))
	}
	return nil
}

// pause waits d, returning early if ctx ends. Pacing never aborts an
// operation halfway.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
