// ABOUTME: StatusBar component showing live-update state, the active chat, and activity
// ABOUTME: Left side carries state, right side the key hints for the current mode
package components

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/harper/chatsync/internal/tui/theme"
)

// Connection states of the live event stream.
const (
	ConnLive     = "live"
	ConnOffline  = "offline"
	ConnDisabled = "disabled"
)

type StatusBar struct {
	width      int
	theme      theme.Theme
	connection string
	session    string
	mode       string
	busy       bool
}

func NewStatusBar(width int, t theme.Theme) *StatusBar {
	return &StatusBar{
		width:      width,
		theme:      t,
		connection: ConnDisabled,
	}
}

func (s *StatusBar) SetConnectionStatus(status string) {
	s.connection = status
}

// SetActiveSession sets the title shown for the active chat. Empty means
// the welcome state of an unsaved chat.
func (s *StatusBar) SetActiveSession(title string) {
	s.session = title
}

// SetMode names a modal state such as EDIT or SEARCH. Empty clears.
func (s *StatusBar) SetMode(mode string) {
	s.mode = mode
}

func (s *StatusBar) SetBusy(busy bool) {
	s.busy = busy
}

func (s *StatusBar) SetSize(width int) {
	s.width = width
}

func (s *StatusBar) View() string {
	var conn string
	switch s.connection {
	case ConnLive:
		conn = "🟢 Live"
	case ConnOffline:
		conn = "🔴 Offline"
	default:
		conn = "⚪ Manual refresh"
	}

	parts := []string{"[" + conn + "]"}
	if s.mode != "" {
		parts = append(parts, "["+s.mode+"]")
	}
	if s.session != "" {
		parts = append(parts, "Chat: "+s.session)
	} else {
		parts = append(parts, "New chat")
	}
	if s.busy {
		parts = append(parts, "⏳")
	}
	left := strings.Join(parts, " ")

	hints := "Tab: Focus, ?: Help, Ctrl+C: Quit"
	switch s.mode {
	case "EDIT":
		hints = "Enter: Save, Esc: Cancel"
	case "SEARCH":
		hints = "Enter: Search all chats, Esc: Close"
	}

	avail := s.width - 4
	padding := avail - ansi.PrintableRuneWidth(left) - ansi.PrintableRuneWidth(hints) - 3
	var content string
	if padding < 1 {
		content = truncate.StringWithTail(left, uint(max(avail, 0)), "…")
	} else {
		content = fmt.Sprintf("%s%s | %s", left, strings.Repeat(" ", padding), hints)
	}

	return s.theme.StatusBarStyle().
		Width(s.width - 2).
		Render(content)
}
