// ABOUTME: InputArea component for composing and editing messages
// ABOUTME: Wraps bubbles/textarea with theme styling, focus, and an edit mode
package components

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harper/chatsync/internal/tui/theme"
)

const (
	composePlaceholder = "Type your message... (Enter to send, Alt+Enter for new line)"
	editPlaceholder    = "Edit your message... (Enter to save, Esc to cancel)"
)

// InputArea represents a multi-line text input area.
type InputArea struct {
	width    int
	height   int
	theme    theme.Theme
	textarea textarea.Model
	focused  bool
	editing  bool
	// draft holds what was typed before edit mode replaced it.
	draft string
}

// NewInputArea creates a new InputArea with the specified dimensions and theme.
func NewInputArea(width, height int, th theme.Theme) *InputArea {
	ta := textarea.New()
	ta.Placeholder = composePlaceholder
	ta.SetWidth(width - 2)
	ta.SetHeight(height)
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	return &InputArea{
		width:    width,
		height:   height,
		theme:    th,
		textarea: ta,
	}
}

func (ia *InputArea) SetValue(value string) {
	ia.textarea.SetValue(value)
}

func (ia *InputArea) GetValue() string {
	return ia.textarea.Value()
}

func (ia *InputArea) Clear() {
	ia.textarea.Reset()
}

func (ia *InputArea) Focus() {
	ia.focused = true
	ia.textarea.Focus()
}

func (ia *InputArea) Blur() {
	ia.focused = false
	ia.textarea.Blur()
}

func (ia *InputArea) Focused() bool {
	return ia.focused
}

// BeginEdit stashes the current draft and loads original for editing.
func (ia *InputArea) BeginEdit(original string) {
	if !ia.editing {
		ia.draft = ia.textarea.Value()
	}
	ia.editing = true
	ia.textarea.Placeholder = editPlaceholder
	ia.textarea.SetValue(original)
}

// EndEdit leaves edit mode and restores the stashed draft.
func (ia *InputArea) EndEdit() {
	if !ia.editing {
		return
	}
	ia.editing = false
	ia.textarea.Placeholder = composePlaceholder
	ia.textarea.SetValue(ia.draft)
	ia.draft = ""
}

func (ia *InputArea) Editing() bool {
	return ia.editing
}

// SetSize updates the dimensions of the input area.
func (ia *InputArea) SetSize(width, height int) {
	ia.width = width
	ia.height = height
	ia.textarea.SetWidth(width - 2)
	ia.textarea.SetHeight(height)
}

// Init initializes the component (Bubbletea lifecycle).
func (ia *InputArea) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the component (Bubbletea lifecycle).
func (ia *InputArea) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	ia.textarea, cmd = ia.textarea.Update(msg)
	return ia, cmd
}

// View renders the input area with theme styling.
func (ia *InputArea) View() string {
	style := ia.theme.InputAreaStyle().
		Width(ia.width).
		Height(ia.height)
	if ia.editing {
		style = style.
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(ia.theme.Warning)
	}
	return style.Render(ia.textarea.View())
}
