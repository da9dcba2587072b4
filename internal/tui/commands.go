// ABOUTME: Bubbletea commands that run engine operations off the UI goroutine
// ABOUTME: Each command reports back with a *DoneMsg carrying the result or error
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harper/chatsync/internal/chat"
)

type startedMsg struct{ err error }

type sendDoneMsg struct {
	text   string
	result *chat.SendResult
	err    error
}

type editDoneMsg struct {
	result *chat.EditResult
	err    error
}

type deleteDoneMsg struct {
	result *chat.DeleteResult
	err    error
}

type feedbackDoneMsg struct {
	messageID string
	kind      string
	err       error
}

type loadDoneMsg struct {
	sessionID string
	err       error
}

type deleteSessionDoneMsg struct {
	sessionID string
	err       error
}

type exportDoneMsg struct {
	path string
	err  error
}

type remoteSearchDoneMsg struct {
	query string
	hits  []chat.RemoteHit
	err   error
}

type refreshDoneMsg struct{ err error }

type connTickMsg struct{}

const connPollInterval = time.Second

func connTick() tea.Cmd {
	return tea.Tick(connPollInterval, func(time.Time) tea.Msg { return connTickMsg{} })
}

func (m Model) startCmd() tea.Cmd {
	e, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return startedMsg{err: e.Start(ctx)}
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	e, ctx := m.engine, m.ctx
	return func() tea.Msg {
		res, err := e.Send(ctx, text)
		return sendDoneMsg{text: text, result: res, err: err}
	}
}

func (m Model) confirmEditCmd(text string) tea.Cmd {
	c, ctx := m.engine.Cascade, m.ctx
	return func() tea.Msg {
		res, err := c.ConfirmEdit(ctx, text)
		return editDoneMsg{result: res, err: err}
	}
}

func (m Model) confirmDeleteCmd() tea.Cmd {
	c, ctx := m.engine.Cascade, m.ctx
	return func() tea.Msg {
		res, err := c.ConfirmDelete(ctx)
		return deleteDoneMsg{result: res, err: err}
	}
}

func (m Model) feedbackCmd(id, kind string) tea.Cmd {
	c, ctx := m.engine.Cascade, m.ctx
	return func() tea.Msg {
		return feedbackDoneMsg{messageID: id, kind: kind, err: c.SubmitFeedback(ctx, id, kind)}
	}
}

func (m Model) loadSessionCmd(id string) tea.Cmd {
	s, ctx := m.engine.Sessions, m.ctx
	return func() tea.Msg {
		return loadDoneMsg{sessionID: id, err: s.LoadSession(ctx, id)}
	}
}

func (m Model) deleteSessionCmd(id string) tea.Cmd {
	s, ctx := m.engine.Sessions, m.ctx
	return func() tea.Msg {
		return deleteSessionDoneMsg{sessionID: id, err: s.DeleteSession(ctx, id)}
	}
}

func (m Model) exportCmd(format string) tea.Cmd {
	e, ctx := m.engine, m.ctx
	return func() tea.Msg {
		path, err := e.ExportActive(ctx, format)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m Model) remoteSearchCmd(query string) tea.Cmd {
	e, ctx := m.engine, m.ctx
	return func() tea.Msg {
		hits, err := e.RemoteSearch(ctx, query, true)
		return remoteSearchDoneMsg{query: query, hits: hits, err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	h, ctx := m.engine.History, m.ctx
	return func() tea.Msg {
		return refreshDoneMsg{err: h.Refresh(ctx)}
	}
}
