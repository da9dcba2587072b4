// ABOUTME: Ordered in-memory store of the active session's messages
// ABOUTME: Atomic batches, in-place reconciliation, and one change notification per commit

package chat

import (
	"fmt"
	"sync"

	chaterrors "github.com/harper/chatsync/internal/errors"
	"github.com/harper/chatsync/internal/logger"
)

// Change describes one committed store mutation.
type Change struct {
	Version  uint64
	Messages []Message
	// Removed holds the messages dropped by this commit, marked StatusDeleted.
	Removed []Message
}

// MessageStore owns the messages of the active session. Order is arrival
// order and never changes when a message is reconciled or edited.
type MessageStore struct {
	mu       sync.RWMutex
	messages []Message
	version  uint64
	listener func(Change)
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

// SetListener registers fn to receive every committed change. fn runs
// outside the store lock on the goroutine that committed.
func (s *MessageStore) SetListener(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// Batch applies fn to a working copy and commits it only if fn returns nil.
func (s *MessageStore) Batch(fn func(tx *StoreTx) error) error {
	s.mu.Lock()
	tx := newStoreTx(s.messages)
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return err
	}
	if !tx.changed {
		s.mu.Unlock()
		return nil
	}

	s.messages = tx.messages
	s.version++
	change := Change{
		Version:  s.version,
		Messages: cloneMessages(s.messages),
		Removed:  tx.removed,
	}
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(change)
	}
	return nil
}

// Append adds msg at the end. A duplicate id is rejected.
func (s *MessageStore) Append(msg Message) error {
	return s.Batch(func(tx *StoreTx) error { return tx.Append(msg) })
}

// Reconcile replaces the pending message tempID with the confirmed server
// version in place. A missing tempID is logged and reported as false.
func (s *MessageStore) Reconcile(tempID string, server Message) bool {
	var ok bool
	_ = s.Batch(func(tx *StoreTx) error {
		ok = tx.Reconcile(tempID, server)
		return nil
	})
	return ok
}

// RemoveMany drops every listed id in one commit. Unknown ids are ignored.
func (s *MessageStore) RemoveMany(ids ...string) int {
	var n int
	_ = s.Batch(func(tx *StoreTx) error {
		n = tx.RemoveMany(ids...)
		return nil
	})
	return n
}

func (s *MessageStore) ReplaceContent(id, content string) error {
	return s.Batch(func(tx *StoreTx) error { return tx.ReplaceContent(id, content) })
}

func (s *MessageStore) Clear() {
	_ = s.Batch(func(tx *StoreTx) error {
		tx.Clear()
		return nil
	})
}

// ReplaceAll swaps in a whole transcript, as when a session is loaded.
func (s *MessageStore) ReplaceAll(msgs []Message) error {
	return s.Batch(func(tx *StoreTx) error { return tx.ReplaceAll(msgs) })
}

func (s *MessageStore) Get(id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Snapshot returns a copy of the messages in order.
func (s *MessageStore) Snapshot() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMessages(s.messages)
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Version increases by one per committed change.
func (s *MessageStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// StoreTx is the working copy handed to a Batch function.
type StoreTx struct {
	messages []Message
	removed  []Message
	changed  bool
}

func newStoreTx(msgs []Message) *StoreTx {
	return &StoreTx{messages: cloneMessages(msgs)}
}

func (tx *StoreTx) indexOf(id string) int {
	for i, m := range tx.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (tx *StoreTx) Get(id string) (Message, bool) {
	if i := tx.indexOf(id); i >= 0 {
		return tx.messages[i], true
	}
	return Message{}, false
}

func (tx *StoreTx) Append(msg Message) error {
	if msg.ID == "" {
		return chaterrors.NewValidationError("message", "message id is empty")
	}
	if tx.indexOf(msg.ID) >= 0 {
		return fmt.Errorf("duplicate message id %s", msg.ID)
	}
	tx.messages = append(tx.messages, msg)
	tx.changed = true
	return nil
}

func (tx *StoreTx) Reconcile(tempID string, server Message) bool {
	i := tx.indexOf(tempID)
	if i < 0 {
		logger.Warn("reconcile: message %s not found", tempID)
		return false
	}
	current := tx.messages[i]
	if current.Status != StatusPending {
		logger.Warn("reconcile: message %s is %s, not pending", tempID, current.Status)
		return false
	}
	if server.ID != tempID && tx.indexOf(server.ID) >= 0 {
		logger.Warn("reconcile: server id %s already present", server.ID)
		return false
	}

	current.ID = server.ID
	current.Content = server.Content
	current.Status = StatusConfirmed
	if server.LinkedID != "" {
		current.LinkedID = server.LinkedID
	}
	if !server.Timestamp.IsZero() {
		current.Timestamp = server.Timestamp
	}
	tx.messages[i] = current
	tx.changed = true
	return true
}

func (tx *StoreTx) RemoveMany(ids ...string) int {
	if len(ids) == 0 || len(tx.messages) == 0 {
		return 0
	}
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
	}

	kept := tx.messages[:0]
	removed := 0
	for _, m := range tx.messages {
		if _, ok := doomed[m.ID]; ok {
			m.Status = StatusDeleted
			tx.removed = append(tx.removed, m)
			removed++
			continue
		}
		kept = append(kept, m)
	}
	tx.messages = kept
	if removed > 0 {
		tx.changed = true
	}
	return removed
}

func (tx *StoreTx) ReplaceContent(id, content string) error {
	i := tx.indexOf(id)
	if i < 0 {
		return chaterrors.NewNotFoundError("message", id)
	}
	tx.messages[i].Content = content
	tx.changed = true
	return nil
}

// Update applies fn to the message with id in place. The id itself must not change.
func (tx *StoreTx) Update(id string, fn func(*Message)) error {
	i := tx.indexOf(id)
	if i < 0 {
		return chaterrors.NewNotFoundError("message", id)
	}
	fn(&tx.messages[i])
	tx.messages[i].ID = id
	tx.changed = true
	return nil
}

func (tx *StoreTx) Clear() {
	if len(tx.messages) == 0 {
		return
	}
	tx.RemoveMany(ids(tx.messages)...)
}

func (tx *StoreTx) ReplaceAll(msgs []Message) error {
	if err := checkUnique(msgs); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		seen[m.ID] = struct{}{}
	}
	for _, m := range tx.messages {
		if _, kept := seen[m.ID]; !kept {
			m.Status = StatusDeleted
			tx.removed = append(tx.removed, m)
		}
	}
	tx.messages = cloneMessages(msgs)
	tx.changed = true
	return nil
}

func checkUnique(msgs []Message) error {
	seen := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if m.ID == "" {
			return chaterrors.NewValidationError("message", "message id is empty")
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate message id %s", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
