// ABOUTME: HelpOverlay component listing keyboard shortcuts by focus area
// ABOUTME: Renders a centered modal over the whole screen while visible
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/harper/chatsync/internal/tui/theme"
)

type Shortcut struct {
	Key         string
	Description string
}

type ShortcutGroup struct {
	Title     string
	Shortcuts []Shortcut
}

// DefaultShortcuts mirrors the bindings handled in the tui package.
var DefaultShortcuts = []ShortcutGroup{
	{"Anywhere", []Shortcut{
		{"Tab", "Switch focus"},
		{"Ctrl+N", "New chat"},
		{"Ctrl+F", "Search this chat"},
		{"Ctrl+E", "Export chat"},
		{"Ctrl+R", "Refresh chat list"},
		{"Ctrl+B", "Toggle sidebar"},
		{"?", "Toggle help"},
		{"Ctrl+C", "Quit"},
	}},
	{"Chat list", []Shortcut{
		{"↑/↓", "Move"},
		{"Enter", "Open chat"},
		{"d", "Delete chat"},
	}},
	{"Transcript", []Shortcut{
		{"↑/↓", "Select message"},
		{"e", "Edit your message"},
		{"d", "Delete message pair"},
		{"+/-", "Rate a reply"},
	}},
	{"Input", []Shortcut{
		{"Enter", "Send or save edit"},
		{"Alt+Enter", "New line"},
		{"Esc", "Cancel edit"},
	}},
}

type HelpOverlay struct {
	width   int
	height  int
	theme   theme.Theme
	visible bool
	groups  []ShortcutGroup
}

func NewHelpOverlay(width, height int, t theme.Theme) *HelpOverlay {
	return &HelpOverlay{
		width:  width,
		height: height,
		theme:  t,
		groups: DefaultShortcuts,
	}
}

func (h *HelpOverlay) Show() {
	h.visible = true
}

func (h *HelpOverlay) Hide() {
	h.visible = false
}

func (h *HelpOverlay) IsVisible() bool {
	return h.visible
}

func (h *HelpOverlay) Toggle() {
	h.visible = !h.visible
}

func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

func (h *HelpOverlay) View() string {
	if !h.visible {
		return ""
	}

	keyWidth := 0
	for _, g := range h.groups {
		for _, sc := range g.Shortcuts {
			keyWidth = max(keyWidth, runewidth.StringWidth(sc.Key))
		}
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(h.theme.Primary)
	groupStyle := lipgloss.NewStyle().Bold(true).Foreground(h.theme.Warning)
	keyStyle := lipgloss.NewStyle().Foreground(h.theme.Success).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(h.theme.Foreground)

	var content strings.Builder
	content.WriteString(titleStyle.Render("Keyboard Shortcuts"))
	for _, g := range h.groups {
		content.WriteString("\n\n")
		content.WriteString(groupStyle.Render(g.Title))
		for _, sc := range g.Shortcuts {
			key := runewidth.FillRight(sc.Key, keyWidth)
			content.WriteString(fmt.Sprintf("\n  %s  %s", keyStyle.Render(key), descStyle.Render(sc.Description)))
		}
	}

	modalWidth := min(50, h.width-4)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.theme.Primary).
		Padding(1, 2).
		Width(modalWidth).
		Render(content.String())

	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, box)
}
