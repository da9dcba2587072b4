// ABOUTME: Sidebar component listing persisted chat sessions
// ABOUTME: Handles cursor navigation, the active marker, and search-hit markers
package components

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/harper/chatsync/internal/chat"
	"github.com/harper/chatsync/internal/tui/theme"
)

type Sidebar struct {
	width    int
	height   int
	theme    theme.Theme
	sessions []chat.Session
	cursor   int
	activeID string
	marked   map[string]bool
	status   string
}

func NewSidebar(width, height int, t theme.Theme) *Sidebar {
	return &Sidebar{
		width:  width,
		height: height,
		theme:  t,
	}
}

// SetSessions replaces the list, keeping the cursor on the same session
// when it is still present.
func (s *Sidebar) SetSessions(sessions []chat.Session) {
	var selected string
	if sel := s.Selected(); sel != nil {
		selected = sel.ID
	}

	s.sessions = sessions
	s.cursor = 0
	for i, sess := range sessions {
		if sess.ID == selected {
			s.cursor = i
			break
		}
	}
}

// SetActive marks id as the session shown in the transcript.
func (s *Sidebar) SetActive(id string) {
	s.activeID = id
}

// SetMarked flags sessions that contain remote search hits. nil clears.
func (s *Sidebar) SetMarked(ids []string) {
	s.marked = nil
	if len(ids) == 0 {
		return
	}
	s.marked = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.marked[id] = true
	}
}

// SetStatus shows a one-line note under the title, e.g. a stale-list warning.
func (s *Sidebar) SetStatus(status string) {
	s.status = status
}

func (s *Sidebar) CursorDown() {
	if len(s.sessions) == 0 {
		return
	}
	s.cursor = (s.cursor + 1) % len(s.sessions)
}

func (s *Sidebar) CursorUp() {
	if len(s.sessions) == 0 {
		return
	}
	s.cursor--
	if s.cursor < 0 {
		s.cursor = len(s.sessions) - 1
	}
}

func (s *Sidebar) Selected() *chat.Session {
	if s.cursor < 0 || s.cursor >= len(s.sessions) {
		return nil
	}
	sess := s.sessions[s.cursor]
	return &sess
}

func (s *Sidebar) Len() int {
	return len(s.sessions)
}

func (s *Sidebar) View() string {
	inner := s.width - 4
	if inner < 4 {
		inner = 4
	}

	items := []string{s.theme.ActiveSessionStyle().Width(inner).Render("CHATS")}
	if s.status != "" {
		items = append(items, s.theme.ErrorStyle().Render(runewidth.Truncate(s.status, inner, "…")))
	}
	items = append(items, "")

	if len(s.sessions) == 0 {
		items = append(items, s.theme.DimStyle().Render("No chats yet"))
	}

	for i, sess := range s.sessions {
		marker := "  "
		switch {
		case s.marked[sess.ID]:
			marker = "🔍"
		case sess.ID == s.activeID:
			marker = "▸ "
		}

		name := runewidth.Truncate(sess.DisplayTitle(), inner-runewidth.StringWidth(marker)-1, "…")
		line := fmt.Sprintf("%s %s", marker, name)

		style := s.theme.InactiveSessionStyle()
		if i == s.cursor {
			style = s.theme.ActiveSessionStyle()
		}
		items = append(items, style.Width(inner).Render(line))
	}

	help := s.theme.DimStyle().Render("\n↑↓: Navigate\nenter: Open\nn: New chat\nd: Delete")
	items = append(items, "", help)

	return s.theme.SidebarStyle().
		Width(s.width - 2).
		Height(s.height).
		Render(strings.Join(items, "\n"))
}

func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}
