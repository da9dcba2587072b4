// ABOUTME: SearchBar component for in-transcript search
// ABOUTME: Single-line text input plus the prompt line describing the result
package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harper/chatsync/internal/tui/theme"
)

type SearchBar struct {
	width  int
	theme  theme.Theme
	input  textinput.Model
	prompt string
	active bool
}

func NewSearchBar(width int, th theme.Theme) *SearchBar {
	ti := textinput.New()
	ti.Prompt = "🔍 "
	ti.Placeholder = "Search messages..."
	ti.CharLimit = 200

	return &SearchBar{width: width, theme: th, input: ti}
}

// Open focuses the bar, keeping the previous query.
func (s *SearchBar) Open() tea.Cmd {
	s.active = true
	return s.input.Focus()
}

// Close hides the bar and clears the query and prompt.
func (s *SearchBar) Close() {
	s.active = false
	s.input.Blur()
	s.input.Reset()
	s.prompt = ""
}

func (s *SearchBar) Active() bool {
	return s.active
}

func (s *SearchBar) Query() string {
	return s.input.Value()
}

func (s *SearchBar) SetPrompt(prompt string) {
	s.prompt = prompt
}

func (s *SearchBar) SetSize(width int) {
	s.width = width
	s.input.Width = max(width-8, 10)
}

// Update feeds a key to the input and reports whether the query changed.
func (s *SearchBar) Update(msg tea.Msg) (bool, tea.Cmd) {
	before := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s.input.Value() != before, cmd
}

// Height is the number of lines View occupies.
func (s *SearchBar) Height() int {
	if !s.active {
		return 0
	}
	return 2
}

func (s *SearchBar) View() string {
	if !s.active {
		return ""
	}
	prompt := s.theme.DimStyle().Render(s.prompt)
	return lipgloss.NewStyle().
		Width(s.width).
		Background(s.theme.InputBg).
		Render(s.input.View() + "\n" + prompt)
}
