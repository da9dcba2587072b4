// ABOUTME: Tests for the TUI update loop against the in-memory backend
// ABOUTME: Drives key presses, runs the resulting commands, and checks model state
package tui

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/api/apitest"
	"github.com/harper/chatsync/internal/chat"
	"github.com/harper/chatsync/internal/config"
)

type sink struct {
	msgs []tea.Msg
}

func (s *sink) Send(msg tea.Msg) {
	s.msgs = append(s.msgs, msg)
}

type harness struct {
	t        *testing.T
	srv      *apitest.Server
	renderer *ProgramRenderer
	engine   *chat.Engine
	m        Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	r := NewProgramRenderer()
	dir := t.TempDir()
	e := chat.NewEngine(chat.Options{
		Backend:   api.NewClient(srv.URL),
		Renderer:  r,
		ExportDir: dir,
	})
	t.Cleanup(e.Close)

	cfg := config.DefaultConfig()
	cfg.Export.Directory = dir
	m := NewModel(Options{Config: cfg, Engine: e})
	m.notifications.DismissAfter = 0

	h := &harness{t: t, srv: srv, renderer: r, engine: e, m: m}
	h.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.flush()
	return cmd
}

// flush delivers queued engine notifications, as the pump would.
func (h *harness) flush() {
	s := &sink{}
	h.renderer.drain(s)
	for _, msg := range s.msgs {
		next, _ := h.m.Update(msg)
		h.m = next.(Model)
	}
}

func (h *harness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = h.update(keyMsg(k))
	}
	return cmd
}

// run executes an operation command and feeds its result back.
func (h *harness) run(cmd tea.Cmd) tea.Msg {
	h.t.Helper()
	require.NotNil(h.t, cmd)
	msg := cmd()
	h.flush()
	h.update(msg)
	return msg
}

func (h *harness) send(text string) {
	h.t.Helper()
	h.m.inputArea.SetValue(text)
	done, ok := h.run(h.press("enter")).(sendDoneMsg)
	require.True(h.t, ok)
	require.NoError(h.t, done.err)
}

func (h *harness) contents() []string {
	out := make([]string, len(h.m.messages))
	for i, m := range h.m.messages {
		out[i] = m.Content
	}
	return out
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+f":
		return tea.KeyMsg{Type: tea.KeyCtrlF}
	case "ctrl+e":
		return tea.KeyMsg{Type: tea.KeyCtrlE}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func TestSend_AppendsConfirmedExchange(t *testing.T) {
	h := newHarness(t)

	h.m.inputArea.SetValue("Hi")
	cmd := h.press("enter")
	assert.Equal(t, "", h.m.inputArea.GetValue())
	assert.Equal(t, 1, h.m.inflight)

	h.run(cmd)
	assert.Equal(t, []string{"Hi", "Echo: Hi"}, h.contents())
	assert.Equal(t, 0, h.m.inflight)
	assert.NotEmpty(t, h.engine.Sessions.Active().ID)
	assert.Contains(t, h.m.View(), "Echo: Hi")
}

func TestSend_EmptyInputDoesNothing(t *testing.T) {
	h := newHarness(t)
	h.m.inputArea.SetValue("   ")

	assert.Nil(t, h.press("enter"))
	assert.Equal(t, 0, h.srv.Hits(api.DefaultEndpoints().Chat))
}

func TestSend_FailureRestoresDraft(t *testing.T) {
	h := newHarness(t)
	h.srv.Reject(api.DefaultEndpoints().Chat, "Message too long")

	h.m.inputArea.SetValue("Hi")
	h.run(h.press("enter"))

	assert.Equal(t, "Hi", h.m.inputArea.GetValue())
	assert.Empty(t, h.m.messages)
	assert.Contains(t, h.m.notifications.Messages(), "Message too long")
}

func TestEdit_RegeneratesReply(t *testing.T) {
	h := newHarness(t)
	h.send("Hi")

	h.press("tab", "tab", "up", "up", "e")
	require.True(t, h.m.inputArea.Editing())
	assert.Equal(t, "Hi", h.m.inputArea.GetValue())
	assert.Equal(t, FocusInputArea, h.m.focusedArea)

	h.m.inputArea.SetValue("Hi there")
	done, ok := h.run(h.press("enter")).(editDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	assert.Equal(t, []string{"Hi there", "Echo: Hi there"}, h.contents())
	assert.False(t, h.m.inputArea.Editing())
	assert.Equal(t, "", h.m.inputArea.GetValue())
}

func TestEdit_EscCancels(t *testing.T) {
	h := newHarness(t)
	h.send("Hi")

	h.press("tab", "tab", "up", "up", "e")
	require.True(t, h.m.inputArea.Editing())

	h.press("esc")
	assert.False(t, h.m.inputArea.Editing())
	_, _, editing := h.engine.Cascade.Editing()
	assert.False(t, editing)
	assert.Equal(t, []string{"Hi", "Echo: Hi"}, h.contents())
}

func TestEdit_NewChatDropsEditState(t *testing.T) {
	h := newHarness(t)
	h.send("Hi")

	h.press("tab", "tab", "up", "up", "e")
	require.True(t, h.m.inputArea.Editing())

	h.press("ctrl+n")
	assert.False(t, h.m.inputArea.Editing())
	_, _, editing := h.engine.Cascade.Editing()
	assert.False(t, editing)
	assert.Empty(t, h.contents())
}

func TestHistoryStatus(t *testing.T) {
	assert.Equal(t, "", historyStatus(time.Now(), nil))
	assert.Equal(t, "List may be out of date", historyStatus(time.Time{}, errors.New("offline")))

	at := time.Date(2026, 3, 4, 9, 30, 0, 0, time.Local)
	assert.Equal(t, "List from Mar 4 09:30, may be out of date", historyStatus(at, errors.New("offline")))
}

func TestEdit_BotMessageRefused(t *testing.T) {
	h := newHarness(t)
	h.send("Hi")

	h.press("tab", "tab", "up", "e")
	assert.False(t, h.m.inputArea.Editing())
	assert.NotEmpty(t, h.m.notifications.Messages())
}

func TestDeleteMessage_ConfirmDialog(t *testing.T) {
	h := newHarness(t)
	h.send("Hi")

	h.press("tab", "tab", "up", "d")
	require.NotNil(t, h.m.dialog)
	assert.Contains(t, h.m.View(), "Delete this message?")

	h.press("n")
	assert.Nil(t, h.m.dialog)
	_, pending := h.engine.Cascade.PendingDelete()
	assert.False(t, pending)
	assert.Len(t, h.m.messages, 2)

	h.press("d")
	h.run(h.press("y"))
	assert.Empty(t, h.m.messages)
}

func TestNewChat_ClearsTranscript(t *testing.T) {
	h := newHarness(t)
	h.send("Hi")

	h.press("ctrl+n")
	assert.Empty(t, h.m.messages)
	assert.Equal(t, "", h.engine.Sessions.Active().ID)
	assert.Contains(t, h.m.chatView.View(), "Start a new conversation")
}

func TestSidebar_LoadAndDeleteSession(t *testing.T) {
	h := newHarness(t)
	sid := h.srv.CreateSession("Trip planning")
	h.srv.AddExchange(sid, "Where to?", "Lisbon.")

	h.run(h.m.refreshCmd())
	require.Equal(t, 1, h.m.sidebar.Len())

	h.press("tab")
	require.Equal(t, FocusSidebar, h.m.focusedArea)
	done, ok := h.run(h.press("enter")).(loadDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	assert.Equal(t, []string{"Where to?", "Lisbon."}, h.contents())
	assert.Equal(t, sid.String(), h.engine.Sessions.Active().ID)
	assert.Contains(t, h.m.View(), "Chat: Trip planning")

	h.press("tab", "d")
	require.NotNil(t, h.m.dialog)
	h.run(h.press("y"))

	assert.Equal(t, "", h.engine.Sessions.Active().ID)
	assert.Empty(t, h.m.messages)
	assert.Contains(t, h.m.notifications.Messages(), "Chat deleted")
	require.Eventually(t, func() bool {
		h.flush()
		return h.m.sidebar.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSearch_HighlightsAndPrompts(t *testing.T) {
	h := newHarness(t)
	h.send("Hello world")

	h.press("ctrl+f")
	require.True(t, h.m.searchBar.Active())

	h.press("h")
	assert.Contains(t, h.m.searchBar.View(), "Type at least 2 characters to search...")

	h.press("ello")
	assert.Contains(t, h.m.searchBar.View(), `Found 2 message(s) containing "hello"`)

	h.run(h.press("enter"))
	assert.Contains(t, h.m.searchBar.View(), "in 1 chat(s)")

	h.press("esc")
	assert.False(t, h.m.searchBar.Active())
}

func TestExport_WritesChosenFormat(t *testing.T) {
	h := newHarness(t)

	h.press("ctrl+e")
	assert.Nil(t, h.m.dialog)
	assert.Contains(t, h.m.notifications.Messages(), "No active chat to export")

	h.send("Hi")
	h.press("ctrl+e")
	require.NotNil(t, h.m.dialog)

	done, ok := h.run(h.press("m")).(exportDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	_, err := os.Stat(done.path)
	assert.NoError(t, err)
}

func TestStoreChanged_IgnoresOlderVersions(t *testing.T) {
	h := newHarness(t)
	newer := []chat.Message{{ID: "2", Role: chat.RoleUser, Content: "newer", Status: chat.StatusConfirmed}}
	older := []chat.Message{{ID: "1", Role: chat.RoleUser, Content: "older", Status: chat.StatusConfirmed}}

	h.update(storeChangedMsg{change: chat.Change{Version: 5, Messages: newer}})
	h.update(storeChangedMsg{change: chat.Change{Version: 3, Messages: older}})

	assert.Equal(t, []string{"newer"}, h.contents())
}

func TestHelpOverlay_OnlyOutsideInput(t *testing.T) {
	h := newHarness(t)

	h.press("?")
	assert.False(t, h.m.helpOverlay.IsVisible())
	assert.Equal(t, "?", h.m.inputArea.GetValue())

	h.press("tab", "?")
	assert.True(t, h.m.helpOverlay.IsVisible())
	assert.Contains(t, h.m.View(), "Keyboard Shortcuts")

	h.press("esc")
	assert.False(t, h.m.helpOverlay.IsVisible())
}

func TestProgramRenderer_PreservesOrder(t *testing.T) {
	r := NewProgramRenderer()
	r.SessionChanged(chat.Session{ID: "1"})
	r.MessagesChanged(chat.Change{Version: 1})
	r.HistoryChanged(nil)

	s := &sink{}
	r.drain(s)
	require.Len(t, s.msgs, 3)
	assert.IsType(t, sessionChangedMsg{}, s.msgs[0])
	assert.IsType(t, storeChangedMsg{}, s.msgs[1])
	assert.IsType(t, historyChangedMsg{}, s.msgs[2])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx, s)
}
