// ABOUTME: Collaborator interfaces for the chat core: the backend API and the renderer
// ABOUTME: The core depends only on these, so it runs without a network or a screen

package chat

import (
	"context"
	"time"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/db"
)

// Backend is the server of record. *api.Client implements it.
type Backend interface {
	SendMessage(ctx context.Context, text string, sessionID api.ID) (*api.SendResponse, error)
	EditMessage(ctx context.Context, messageID api.ID, newText string) (*api.EditResponse, error)
	DeleteMessage(ctx context.Context, messageID api.ID) (*api.DeleteMessageResponse, error)
	SubmitFeedback(ctx context.Context, messageID api.ID, feedbackType string) error
	ListSessions(ctx context.Context) ([]api.SessionInfo, error)
	LoadSession(ctx context.Context, sessionID api.ID) (*api.SessionHistoryResponse, error)
	DeleteSession(ctx context.Context, sessionID api.ID) error
	ExportSession(ctx context.Context, sessionID api.ID, format string) (*api.Export, error)
	Search(ctx context.Context, query string, sessionID api.ID) (*api.SearchResponse, error)
}

// Renderer observes state. Calls arrive from whichever goroutine committed
// the change and never while a core lock is held.
type Renderer interface {
	MessagesChanged(change Change)
	SessionChanged(session Session)
	HistoryChanged(sessions []Session)
}

// SessionCache persists the last good sidebar list. *db.DB implements it.
type SessionCache interface {
	LoadSessions() ([]db.Session, error)
	SaveSessions(sessions []db.Session) error
	// LastRefresh reports when SaveSessions last succeeded; ok is false
	// for an empty cache.
	LastRefresh() (at time.Time, ok bool, err error)
}

// NopRenderer discards every notification.
type NopRenderer struct{}

func (NopRenderer) MessagesChanged(Change)   {}
func (NopRenderer) SessionChanged(Session)   {}
func (NopRenderer) HistoryChanged([]Session) {}

var (
	_ Backend      = (*api.Client)(nil)
	_ SessionCache = (*db.DB)(nil)
)
