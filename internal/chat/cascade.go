// ABOUTME: Edit and delete cascades that touch a user message and its linked reply
// ABOUTME: Edit mode and the single-slot delete register, plus reply feedback

package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/harper/chatsync/internal/api"
	chaterrors "github.com/harper/chatsync/internal/errors"
	"github.com/harper/chatsync/internal/logger"
)

// PlaceholderContent is shown while a regenerated reply is being revealed.
const PlaceholderContent = "⏳ Generating new response..."

type EditResult struct {
	MessageID    string
	Content      string
	RemovedBotID string
	// NewBotMessage is nil when the backend did not regenerate a reply, or
	// when the placeholder was gone before the reply could replace it.
	NewBotMessage *Message
}

type DeleteResult struct {
	TargetID   string
	RemovedIDs []string
}

type Cascade struct {
	mu sync.Mutex
	// editID is the message in edit mode, editOriginal its staged content.
	editID        string
	editOriginal  string
	pendingDelete string

	sessions *SessionController
	store    *MessageStore
	backend  Backend
	queue    *RequestQueue
	pacing   Pacing
}

// NewCascade returns a cascade whose edit and delete state is dropped
// whenever sessions switches to another view.
func NewCascade(sessions *SessionController, store *MessageStore, backend Backend, queue *RequestQueue, pacing Pacing) *Cascade {
	c := &Cascade{
		sessions: sessions,
		store:    store,
		backend:  backend,
		queue:    queue,
		pacing:   pacing,
	}
	sessions.OnSwitch(c.reset)
	return c
}

func (c *Cascade) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editID, c.editOriginal, c.pendingDelete = "", "", ""
}

// BeginEdit enters edit mode for a confirmed user message and returns its
// current content. Any previous edit is abandoned.
func (c *Cascade) BeginEdit(id string) (string, error) {
	msg, ok := c.store.Get(id)
	if !ok {
		return "", chaterrors.NewNotFoundError("message", id)
	}
	if !msg.Editable() {
		return "", chaterrors.NewValidationError("message", "only your own sent messages can be edited")
	}

	c.mu.Lock()
	c.editID = id
	c.editOriginal = msg.Content
	c.mu.Unlock()
	return msg.Content, nil
}

// Editing returns the message in edit mode and its original content.
func (c *Cascade) Editing() (id, original string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editID, c.editOriginal, c.editID != ""
}

func (c *Cascade) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editID, c.editOriginal = "", ""
}

// ConfirmEdit submits newText for the message in edit mode. Empty text is
// rejected and edit mode stays open; any backend outcome ends edit mode.
func (c *Cascade) ConfirmEdit(ctx context.Context, newText string) (*EditResult, error) {
	id, _, ok := c.Editing()
	if !ok {
		return nil, chaterrors.NewValidationError("edit", "no message is being edited")
	}
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return nil, chaterrors.NewValidationError("message", "message cannot be empty")
	}

	release, err := c.queue.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	token := c.sessions.EnsureSession()
	resp, err := c.backend.EditMessage(ctx, api.ID(id), newText)
	c.endEdit(id)
	if err != nil {
		logger.Warn("edit %s failed: %v", id, err)
		return nil, fmt.Errorf("edit message: %w", err)
	}

	result := &EditResult{MessageID: id, Content: newText, RemovedBotID: resp.RemovedBotID.String()}
	var placeholderID string
	var reply Message

	err = c.store.Batch(func(tx *StoreTx) error {
		if !c.sessions.Current(token) {
			return chaterrors.ErrSuperseded
		}
		if err := tx.ReplaceContent(id, newText); err != nil {
			return err
		}
		if result.RemovedBotID != "" {
			tx.RemoveMany(result.RemovedBotID)
			_ = tx.Update(id, func(m *Message) {
				if m.LinkedID == result.RemovedBotID {
					m.LinkedID = ""
				}
			})
		}
		if resp.NewBotMessage != nil && resp.NewBotMessage.ID != "" {
			placeholderID = NewPlaceholderID()
			return tx.Append(Message{
				ID:        placeholderID,
				Role:      RoleBot,
				Content:   PlaceholderContent,
				SessionID: token.SessionID,
				LinkedID:  id,
				Status:    StatusPending,
			})
		}
		return nil
	})
	if err != nil {
		if !chaterrors.IsSuperseded(err) {
			logger.Warn("edit %s: applying reply: %v", id, err)
		}
		return nil, err
	}

	if placeholderID == "" {
		return result, nil
	}

	pause(ctx, c.pacing.RegenerateDelay)

	reply = Message{
		ID:        resp.NewBotMessage.ID.String(),
		Role:      RoleBot,
		Content:   resp.NewBotMessage.Content,
		SessionID: token.SessionID,
		LinkedID:  id,
		Status:    StatusConfirmed,
		Timestamp: parseTimestamp(resp.NewBotMessage.Timestamp),
	}
	reconciled := false
	err = c.store.Batch(func(tx *StoreTx) error {
		if !c.sessions.Current(token) {
			return chaterrors.ErrSuperseded
		}
		if !tx.Reconcile(placeholderID, reply) {
			return nil
		}
		reconciled = true
		return tx.Update(id, func(m *Message) { m.LinkedID = reply.ID })
	})
	if err != nil {
		return nil, err
	}

	if reconciled {
		result.NewBotMessage = &reply
	}
	return result, nil
}

func (c *Cascade) endEdit(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editID == id {
		c.editID, c.editOriginal = "", ""
	}
}

// RequestDelete registers id as the pending delete target, replacing any
// earlier target. Nothing is sent until ConfirmDelete.
func (c *Cascade) RequestDelete(id string) error {
	msg, ok := c.store.Get(id)
	if !ok {
		return chaterrors.NewNotFoundError("message", id)
	}
	if msg.Status != StatusConfirmed {
		return chaterrors.NewValidationError("message", "message is not saved yet")
	}

	c.mu.Lock()
	c.pendingDelete = id
	c.mu.Unlock()
	return nil
}

// PendingDelete returns the registered delete target.
func (c *Cascade) PendingDelete() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingDelete, c.pendingDelete != ""
}

func (c *Cascade) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = ""
}

// ConfirmDelete deletes the registered target and removes exactly the ids
// the backend reports. The register is cleared whatever the outcome.
func (c *Cascade) ConfirmDelete(ctx context.Context) (*DeleteResult, error) {
	c.mu.Lock()
	id := c.pendingDelete
	c.pendingDelete = ""
	c.mu.Unlock()

	if id == "" {
		return nil, chaterrors.NewValidationError("delete", "no message selected for deletion")
	}

	release, err := c.queue.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	token := c.sessions.EnsureSession()
	resp, err := c.backend.DeleteMessage(ctx, api.ID(id))
	if err != nil {
		logger.Warn("delete %s failed: %v", id, err)
		return nil, fmt.Errorf("delete message: %w", err)
	}

	removed := make([]string, 0, len(resp.DeletedIDs))
	for _, d := range resp.DeletedIDs {
		removed = append(removed, d.String())
	}
	if resp.DeletedIDs == nil {
		removed = []string{id}
	}

	err = c.store.Batch(func(tx *StoreTx) error {
		if !c.sessions.Current(token) {
			return chaterrors.ErrSuperseded
		}
		tx.RemoveMany(removed...)
		unlinkRemoved(tx, removed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for _, r := range removed {
		if c.editID == r {
			c.editID, c.editOriginal = "", ""
		}
	}
	c.mu.Unlock()

	logger.Debug("delete %s removed %v", id, removed)
	return &DeleteResult{TargetID: id, RemovedIDs: removed}, nil
}

// unlinkRemoved clears back-references to messages that no longer exist.
func unlinkRemoved(tx *StoreTx, removed []string) {
	gone := make(map[string]struct{}, len(removed))
	for _, r := range removed {
		gone[r] = struct{}{}
	}
	for _, m := range tx.messages {
		if _, ok := gone[m.LinkedID]; ok && m.LinkedID != "" {
			_ = tx.Update(m.ID, func(msg *Message) { msg.LinkedID = "" })
		}
	}
}

// SubmitFeedback records a rating on a confirmed bot reply.
func (c *Cascade) SubmitFeedback(ctx context.Context, id, feedbackType string) error {
	if feedbackType != api.FeedbackPositive && feedbackType != api.FeedbackNegative {
		return chaterrors.NewValidationError("feedback", "feedback must be positive or negative")
	}
	msg, ok := c.store.Get(id)
	if !ok {
		return chaterrors.NewNotFoundError("message", id)
	}
	if msg.Role != RoleBot || msg.Status != StatusConfirmed {
		return chaterrors.NewValidationError("feedback", "only assistant replies can be rated")
	}

	if err := c.backend.SubmitFeedback(ctx, api.ID(id), feedbackType); err != nil {
		logger.Warn("feedback on %s failed: %v", id, err)
		return fmt.Errorf("submit feedback: %w", err)
	}

	err := c.store.Batch(func(tx *StoreTx) error {
		return tx.Update(id, func(m *Message) { m.Feedback = feedbackType })
	})
	if chaterrors.IsNotFound(err) {
		// Deleted while the request was in flight.
		return nil
	}
	return err
}
