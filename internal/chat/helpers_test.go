package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/harper/chatsync/internal/api"
)

var errNotStubbed = errors.New("not stubbed")

// fakeBackend answers from per-method funcs and counts calls.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	send          func(text string, sessionID api.ID) (*api.SendResponse, error)
	edit          func(id api.ID, text string) (*api.EditResponse, error)
	deleteMessage func(id api.ID) (*api.DeleteMessageResponse, error)
	feedback      func(id api.ID, kind string) error
	list          func() ([]api.SessionInfo, error)
	load          func(id api.ID) (*api.SessionHistoryResponse, error)
	deleteSession func(id api.ID) error
	export        func(id api.ID, format string) (*api.Export, error)
	search        func(query string, sessionID api.ID) (*api.SearchResponse, error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (f *fakeBackend) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeBackend) SendMessage(_ context.Context, text string, sessionID api.ID) (*api.SendResponse, error) {
	f.count("send")
	if f.send == nil {
		return nil, errNotStubbed
	}
	return f.send(text, sessionID)
}

func (f *fakeBackend) EditMessage(_ context.Context, id api.ID, text string) (*api.EditResponse, error) {
	f.count("edit")
	if f.edit == nil {
		return nil, errNotStubbed
	}
	return f.edit(id, text)
}

func (f *fakeBackend) DeleteMessage(_ context.Context, id api.ID) (*api.DeleteMessageResponse, error) {
	f.count("delete")
	if f.deleteMessage == nil {
		return nil, errNotStubbed
	}
	return f.deleteMessage(id)
}

func (f *fakeBackend) SubmitFeedback(_ context.Context, id api.ID, kind string) error {
	f.count("feedback")
	if f.feedback == nil {
		return errNotStubbed
	}
	return f.feedback(id, kind)
}

func (f *fakeBackend) ListSessions(context.Context) ([]api.SessionInfo, error) {
	f.count("list")
	if f.list == nil {
		return nil, errNotStubbed
	}
	return f.list()
}

func (f *fakeBackend) LoadSession(_ context.Context, id api.ID) (*api.SessionHistoryResponse, error) {
	f.count("load")
	if f.load == nil {
		return nil, errNotStubbed
	}
	return f.load(id)
}

func (f *fakeBackend) DeleteSession(_ context.Context, id api.ID) error {
	f.count("delete_session")
	if f.deleteSession == nil {
		return errNotStubbed
	}
	return f.deleteSession(id)
}

func (f *fakeBackend) ExportSession(_ context.Context, id api.ID, format string) (*api.Export, error) {
	f.count("export")
	if f.export == nil {
		return nil, errNotStubbed
	}
	return f.export(id, format)
}

func (f *fakeBackend) Search(_ context.Context, query string, sessionID api.ID) (*api.SearchResponse, error) {
	f.count("search")
	if f.search == nil {
		return nil, errNotStubbed
	}
	return f.search(query, sessionID)
}

func sendReply(sessionID, userID, userText, botID, botText string) func(string, api.ID) (*api.SendResponse, error) {
	return func(string, api.ID) (*api.SendResponse, error) {
		return &api.SendResponse{
			Envelope:    api.Envelope{Success: true},
			SessionID:   api.ID(sessionID),
			UserMessage: &api.MessagePayload{ID: api.ID(userID), Content: userText},
			BotMessage:  &api.MessagePayload{ID: api.ID(botID), Content: botText},
		}, nil
	}
}

// recorder is a Renderer that keeps everything it is told.
type recorder struct {
	mu       sync.Mutex
	changes  []Change
	sessions []Session
	history  [][]Session
}

func (r *recorder) MessagesChanged(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) SessionChanged(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *recorder) HistoryChanged(s []Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, s)
}

func (r *recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}

func (r *recorder) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Session(nil), r.sessions...)
}

func (r *recorder) History() [][]Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]Session(nil), r.history...)
}

func newTestEngine(t *testing.T, backend Backend) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := NewEngine(Options{Backend: backend, Renderer: rec})
	t.Cleanup(e.Close)
	return e, rec
}

// seed puts a confirmed exchange into the store under session sid.
func seed(t *testing.T, e *Engine, sid string, msgs ...Message) {
	t.Helper()
	for i := range msgs {
		msgs[i].SessionID = sid
		if msgs[i].Status == StatusPending && msgs[i].ID != "" && !IsTemporaryID(msgs[i].ID) {
			msgs[i].Status = StatusConfirmed
		}
	}
	if err := e.Store.ReplaceAll(msgs); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tok := e.Sessions.EnsureSession()
	if sid != "" && !e.Sessions.Promote(tok, sid, "seeded") {
		t.Fatalf("seed: promote failed")
	}
}

func contents(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID + ":" + m.Role.String() + ":" + m.Content
	}
	return out
}
