// ABOUTME: ChatView component rendering the active transcript in a scrolling viewport
// ABOUTME: Word-wraps content and marks the selected message, search matches, and edits
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/harper/chatsync/internal/chat"
	"github.com/harper/chatsync/internal/tui/theme"
)

const welcomeText = "Start a new conversation.\n\nType below and press Enter to send."

type ChatView struct {
	width    int
	height   int
	theme    theme.Theme
	viewport viewport.Model
	messages []chat.Message
	selected int
	matches  map[string]bool
	editing  string
}

func NewChatView(width, height int, t theme.Theme) *ChatView {
	vp := viewport.New(width, height)
	vp.Style = t.ChatViewStyle()

	return &ChatView{
		width:    width,
		height:   height,
		theme:    t,
		viewport: vp,
		selected: -1,
	}
}

// SetMessages replaces the transcript. The selection is kept on the same
// message id when possible; new messages scroll the view to the bottom.
func (cv *ChatView) SetMessages(messages []chat.Message) {
	selectedID := ""
	if m := cv.Selected(); m != nil {
		selectedID = m.ID
	}
	grew := len(messages) > len(cv.messages)

	cv.messages = messages
	cv.selected = -1
	for i, m := range messages {
		if m.ID == selectedID {
			cv.selected = i
			break
		}
	}

	cv.render()
	if grew {
		cv.viewport.GotoBottom()
	}
}

// SetMatches highlights the given message ids. nil clears highlighting.
func (cv *ChatView) SetMatches(ids []string) {
	cv.matches = nil
	if len(ids) > 0 {
		cv.matches = make(map[string]bool, len(ids))
		for _, id := range ids {
			cv.matches[id] = true
		}
	}
	cv.render()
}

// SetEditing marks the message being edited. Empty clears.
func (cv *ChatView) SetEditing(id string) {
	cv.editing = id
	cv.render()
}

func (cv *ChatView) SelectPrev() {
	if len(cv.messages) == 0 {
		return
	}
	if cv.selected <= 0 {
		cv.selected = len(cv.messages) - 1
	} else {
		cv.selected--
	}
	cv.render()
}

func (cv *ChatView) SelectNext() {
	if len(cv.messages) == 0 {
		return
	}
	cv.selected = (cv.selected + 1) % len(cv.messages)
	cv.render()
}

func (cv *ChatView) ClearSelection() {
	cv.selected = -1
	cv.render()
}

// Selected returns a copy of the selected message, or nil.
func (cv *ChatView) Selected() *chat.Message {
	if cv.selected < 0 || cv.selected >= len(cv.messages) {
		return nil
	}
	m := cv.messages[cv.selected]
	return &m
}

func (cv *ChatView) formatMessage(i int, msg chat.Message) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s %s %s", msg.Role.Icon(), msg.Role.Label(),
		cv.theme.DimStyle().Render(msg.Timestamp.Format("15:04")))
	switch msg.Feedback {
	case "positive":
		header += " 👍"
	case "negative":
		header += " 👎"
	}
	if msg.ID == cv.editing {
		header += " " + cv.theme.DimStyle().Render("(editing)")
	}
	sb.WriteString(header)
	sb.WriteString("\n")

	style := cv.theme.ChatViewStyle().Padding(0)
	switch {
	case msg.Status == chat.StatusPending:
		style = cv.theme.PendingStyle()
	case msg.Role == chat.RoleUser:
		style = style.Foreground(cv.theme.UserMsg)
	default:
		style = style.Foreground(cv.theme.BotMsg)
	}

	wrapAt := cv.width - 6
	if wrapAt < 10 {
		wrapAt = 10
	}
	sb.WriteString(style.Render(wordwrap.String(msg.Content, wrapAt)))

	block := sb.String()
	switch {
	case i == cv.selected:
		block = cv.theme.SelectedStyle().Render(block)
	case cv.matches[msg.ID]:
		block = cv.theme.MatchStyle().Render(block)
	}
	return block
}

func (cv *ChatView) render() {
	if len(cv.messages) == 0 {
		cv.viewport.SetContent(cv.theme.DimStyle().Render(welcomeText))
		return
	}

	blocks := make([]string, len(cv.messages))
	for i, msg := range cv.messages {
		blocks[i] = cv.formatMessage(i, msg)
	}
	cv.viewport.SetContent(strings.Join(blocks, "\n\n"))
}

func (cv *ChatView) View() string {
	return cv.viewport.View()
}

func (cv *ChatView) SetSize(width, height int) {
	cv.width = width
	cv.height = height
	cv.viewport.Width = width
	cv.viewport.Height = height
	cv.render()
}

func (cv *ChatView) Init() tea.Cmd {
	return nil
}

func (cv *ChatView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	cv.viewport, cmd = cv.viewport.Update(msg)
	return cv, cmd
}
