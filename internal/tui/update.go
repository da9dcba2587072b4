// ABOUTME: Update logic for the chat TUI (keys, engine notifications, command results)
// ABOUTME: Implements the Elm architecture Update function
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/chat"
	chaterrors "github.com/harper/chatsync/internal/errors"
	"github.com/harper/chatsync/internal/logger"
	"github.com/harper/chatsync/internal/tui/components"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateComponentSizes()
		return m, nil

	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)

	case storeChangedMsg:
		m = m.onStoreChanged(msg.change)

	case sessionChangedMsg:
		title := ""
		if msg.session.IsPersisted() || msg.session.Title != "" {
			title = msg.session.DisplayTitle()
		}
		m.statusBar.SetActiveSession(title)
		m.sidebar.SetActive(msg.session.ID)

	case historyChangedMsg:
		m.sidebar.SetSessions(msg.sessions)
		m.sidebar.SetStatus(historyStatus(m.engine.History.Status()))
		if s, ok := m.engine.History.Lookup(m.engine.Sessions.Active().ID); ok {
			m.statusBar.SetActiveSession(s.DisplayTitle())
		}

	case startedMsg:
		if msg.err != nil {
			logger.Warn("startup refresh: %v", msg.err)
			cmd = m.notifications.ShowError(msg.err)
		}

	case sendDoneMsg:
		m.inflight--
		if msg.err != nil {
			// Give the text back unless the user has started a new draft.
			if !chaterrors.IsSuperseded(msg.err) && !m.inputArea.Editing() && m.inputArea.GetValue() == "" {
				m.inputArea.SetValue(msg.text)
			}
			cmd = m.notifications.ShowError(msg.err)
		}

	case editDoneMsg:
		m.inflight--
		m.editInFlight = false
		if msg.err != nil && chaterrors.IsValidation(msg.err) {
			cmd = m.notifications.ShowError(msg.err)
			break
		}
		m = m.leaveEditMode()
		if msg.err != nil {
			cmd = m.notifications.ShowError(msg.err)
		}

	case deleteDoneMsg:
		m.inflight--
		if msg.err != nil {
			cmd = m.notifications.ShowError(msg.err)
		}

	case feedbackDoneMsg:
		if msg.err != nil {
			cmd = m.notifications.ShowError(msg.err)
		} else {
			cmd = m.notifications.Show("Thanks for your feedback!", components.SeveritySuccess)
		}

	case loadDoneMsg:
		m.inflight--
		if msg.err != nil {
			cmd = m.notifications.ShowError(msg.err)
			break
		}
		m.chatView.ClearSelection()

	case deleteSessionDoneMsg:
		m.inflight--
		if msg.err != nil {
			cmd = m.notifications.ShowError(msg.err)
		} else {
			cmd = m.notifications.Show("Chat deleted", components.SeveritySuccess)
		}

	case exportDoneMsg:
		if msg.err != nil {
			cmd = m.notifications.ShowError(msg.err)
		} else {
			cmd = m.notifications.Show("Exported to "+msg.path, components.SeveritySuccess)
		}

	case remoteSearchDoneMsg:
		if msg.err != nil {
			cmd = m.notifications.ShowError(msg.err)
			break
		}
		m = m.onRemoteHits(msg.query, msg.hits)

	case refreshDoneMsg:
		if msg.err != nil {
			cmd = m.notifications.ShowError(msg.err)
		}

	case connTickMsg:
		if m.events.IsConnected() {
			m.statusBar.SetConnectionStatus(components.ConnLive)
		} else {
			m.statusBar.SetConnectionStatus(components.ConnOffline)
		}
		cmd = connTick()

	case components.DismissNotificationMsg:
		m.notifications.Update(msg)

	default:
		if m.focusedArea == FocusChatView {
			_, cmd = m.chatView.Update(msg)
		} else if m.focusedArea == FocusInputArea {
			_, cmd = m.inputArea.Update(msg)
		}
	}

	m.statusBar.SetBusy(m.inflight > 0 || m.engine.Busy())
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.dialog != nil {
		return m.handleDialogKey(key)
	}

	if m.helpOverlay.IsVisible() {
		if key == "?" || key == "esc" {
			m.helpOverlay.Toggle()
		}
		return m, nil
	}

	if m.searchBar.Active() {
		return m.handleSearchKey(msg)
	}

	switch key {
	case "tab":
		m.cycleFocus()
		return m, nil
	case "ctrl+b":
		m.sidebarVisible = !m.sidebarVisible
		if !m.sidebarVisible && m.focusedArea == FocusSidebar {
			m.setFocus(FocusInputArea)
		}
		m.updateComponentSizes()
		return m, nil
	case "ctrl+n":
		m = m.leaveEditMode()
		m.engine.Sessions.StartNewSession()
		m.setFocus(FocusInputArea)
		return m, nil
	case "ctrl+f":
		cmd := m.searchBar.Open()
		m.updateComponentSizes()
		m.statusBar.SetMode("SEARCH")
		return m, cmd
	case "ctrl+e":
		if m.engine.Sessions.Active().ID == "" {
			return m, m.notifications.ShowError(chaterrors.NewValidationError("session", "no active chat to export"))
		}
		options := make([]components.DialogOption, 0, len(chat.ExportFormats))
		for _, f := range chat.ExportFormats {
			options = append(options, components.DialogOption{Key: f[:1], Label: "." + f, Value: f})
		}
		m.openDialog(components.NewDialog("Export chat", "Choose a format. The file is written to "+m.config.Export.Directory, options, m.theme), dialogExport, "")
		return m, nil
	case "ctrl+r":
		return m, m.refreshCmd()
	}

	if m.focusedArea != FocusInputArea {
		switch key {
		case "?":
			m.helpOverlay.Toggle()
			return m, nil
		case "q":
			return m, tea.Quit
		}
	}

	switch m.focusedArea {
	case FocusSidebar:
		return m.handleSidebarKey(key)
	case FocusChatView:
		return m.handleChatViewKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

func (m Model) handleSidebarKey(key string) (Model, tea.Cmd) {
	switch key {
	case "up", "k":
		m.sidebar.CursorUp()
	case "down", "j":
		m.sidebar.CursorDown()
	case "n":
		m = m.leaveEditMode()
		m.engine.Sessions.StartNewSession()
		m.setFocus(FocusInputArea)
	case "enter":
		sel := m.sidebar.Selected()
		if sel == nil {
			return m, nil
		}
		m.setFocus(FocusInputArea)
		if sel.ID == m.engine.Sessions.Active().ID {
			return m, nil
		}
		m = m.leaveEditMode()
		m.inflight++
		return m, m.loadSessionCmd(sel.ID)
	case "d":
		if sel := m.sidebar.Selected(); sel != nil {
			m.openDialog(components.NewConfirmDialog(
				"Delete this chat?",
				fmt.Sprintf("%q and all of its messages will be removed.", sel.DisplayTitle()),
				m.theme), dialogDeleteSession, sel.ID)
		}
	}
	return m, nil
}

func (m Model) handleChatViewKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.chatView.SelectPrev()
	case "down", "j":
		m.chatView.SelectNext()
	case "esc":
		m.chatView.ClearSelection()
	case "e":
		sel := m.chatView.Selected()
		if sel == nil {
			return m, nil
		}
		original, err := m.engine.Cascade.BeginEdit(sel.ID)
		if err != nil {
			return m, m.notifications.ShowError(err)
		}
		m.inputArea.BeginEdit(original)
		m.chatView.SetEditing(sel.ID)
		m.statusBar.SetMode("EDIT")
		m.setFocus(FocusInputArea)
	case "d":
		sel := m.chatView.Selected()
		if sel == nil {
			return m, nil
		}
		if err := m.engine.Cascade.RequestDelete(sel.ID); err != nil {
			return m, m.notifications.ShowError(err)
		}
		m.openDialog(components.NewConfirmDialog(
			"Delete this message?",
			"The message and its linked reply will be removed.",
			m.theme), dialogDeleteMessage, sel.ID)
	case "+", "-":
		sel := m.chatView.Selected()
		if sel == nil {
			return m, nil
		}
		kind := api.FeedbackPositive
		if msg.String() == "-" {
			kind = api.FeedbackNegative
		}
		return m, m.feedbackCmd(sel.ID, kind)
	default:
		_, cmd := m.chatView.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	submit := key == "ctrl+s" || (key == "enter" && m.config.UI.SendOnEnter)

	switch {
	case key == "esc" && m.inputArea.Editing():
		m.engine.Cascade.CancelEdit()
		return m.leaveEditMode(), nil

	case submit && m.inputArea.Editing():
		if m.editInFlight {
			return m, nil
		}
		m.editInFlight = true
		m.inflight++
		return m, m.confirmEditCmd(m.inputArea.GetValue())

	case submit:
		text := m.inputArea.GetValue()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.inputArea.Clear()
		m.inflight++
		return m, m.sendCmd(text)
	}

	_, cmd := m.inputArea.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchBar.Close()
		m.chatView.SetMatches(nil)
		m.sidebar.SetMarked(nil)
		m.statusBar.SetMode("")
		m.updateComponentSizes()
		return m, nil
	case "enter":
		return m, m.remoteSearchCmd(m.searchBar.Query())
	}

	changed, cmd := m.searchBar.Update(msg)
	if changed {
		m = m.runLocalSearch()
	}
	return m, cmd
}

func (m Model) handleDialogKey(key string) (Model, tea.Cmd) {
	value, done := m.dialog.Choose(key)
	if !done {
		return m, nil
	}

	action, target := m.dialogAction, m.dialogTarget
	m.dialog, m.dialogAction, m.dialogTarget = nil, dialogNone, ""

	switch action {
	case dialogDeleteMessage:
		if value == "" {
			m.engine.Cascade.CancelDelete()
			return m, nil
		}
		m.inflight++
		return m, m.confirmDeleteCmd()
	case dialogDeleteSession:
		if value == "" {
			return m, nil
		}
		m.inflight++
		return m, m.deleteSessionCmd(target)
	case dialogExport:
		if value == "" {
			return m, nil
		}
		return m, m.exportCmd(value)
	}
	return m, nil
}

func (m *Model) openDialog(d *components.Dialog, action dialogAction, target string) {
	m.dialog = d
	m.dialogAction = action
	m.dialogTarget = target
}

func (m Model) onStoreChanged(c chat.Change) Model {
	// The pump preserves order, but a snapshot taken later may already be newer.
	if c.Version < m.storeVersion {
		return m
	}
	m.storeVersion = c.Version
	m.messages = c.Messages
	m.chatView.SetMessages(c.Messages)

	if _, _, editing := m.engine.Cascade.Editing(); !editing && m.inputArea.Editing() && !m.editInFlight {
		m = m.leaveEditMode()
	}
	if m.searchBar.Active() {
		m = m.runLocalSearch()
	}
	return m
}

func (m Model) runLocalSearch() Model {
	res := chat.Search(m.messages, m.searchBar.Query())
	m.searchBar.SetPrompt(res.Prompt)

	ids := make([]string, len(res.Matches))
	for i, match := range res.Matches {
		ids[i] = match.MessageID
	}
	m.chatView.SetMatches(ids)
	return m
}

func (m Model) onRemoteHits(query string, hits []chat.RemoteHit) Model {
	seen := make(map[string]bool)
	var sessions []string
	for _, h := range hits {
		if h.SessionID != "" && !seen[h.SessionID] {
			seen[h.SessionID] = true
			sessions = append(sessions, h.SessionID)
		}
	}
	m.sidebar.SetMarked(sessions)
	m.searchBar.SetPrompt(fmt.Sprintf("Found %d message(s) in %d chat(s) containing \"%s\"", len(hits), len(sessions), strings.TrimSpace(query)))
	return m
}

// leaveEditMode resets the edit UI only. Session switches clear the
// cascade's edit state themselves; esc cancels it explicitly.
func (m Model) leaveEditMode() Model {
	if !m.inputArea.Editing() {
		return m
	}
	m.inputArea.EndEdit()
	m.chatView.SetEditing("")
	if m.searchBar.Active() {
		m.statusBar.SetMode("SEARCH")
	} else {
		m.statusBar.SetMode("")
	}
	return m
}

// updateComponentSizes recalculates and applies sizes to all components based on window dimensions
func (m *Model) updateComponentSizes() {
	if m.width == 0 || m.height == 0 {
		return
	}

	availableHeight := m.height - 1

	sidebarWidth := 0
	if m.sidebarVisible {
		sidebarWidth = min(m.config.UI.SidebarWidth, m.width/2)
		m.sidebar.SetSize(sidebarWidth, availableHeight)
	}

	mainWidth := m.width - sidebarWidth
	inputHeight := min(5, availableHeight/3)
	searchHeight := m.searchBar.Height()
	chatHeight := max(availableHeight-inputHeight-searchHeight, 1)

	m.chatView.SetSize(mainWidth, chatHeight)
	m.searchBar.SetSize(mainWidth)
	m.inputArea.SetSize(mainWidth, inputHeight)
	m.statusBar.SetSize(m.width)
	m.helpOverlay.SetSize(m.width, m.height)
}

func (m *Model) setFocus(area FocusArea) {
	if area == FocusSidebar && !m.sidebarVisible {
		area = FocusChatView
	}
	if m.focusedArea == FocusInputArea && area != FocusInputArea {
		m.inputArea.Blur()
	}
	m.focusedArea = area
	if area == FocusInputArea {
		m.inputArea.Focus()
	}
}

// cycleFocus moves focus to the next component
func (m *Model) cycleFocus() {
	m.setFocus((m.focusedArea + 1) % 3)
}

// historyStatus is the sidebar note for a list that failed to refresh.
func historyStatus(refreshedAt time.Time, err error) string {
	switch {
	case err == nil:
		return ""
	case refreshedAt.IsZero():
		return "List may be out of date"
	default:
		return "List from " + refreshedAt.Local().Format("Jan 2 15:04") + ", may be out of date"
	}
}
