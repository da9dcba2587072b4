// ABOUTME: Color palettes and lipgloss style constructors for the chat TUI
// ABOUTME: Themes are picked by name from the ui.theme config key
package theme

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color
	SidebarBg  lipgloss.Color
	InputBg    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	UserMsg    lipgloss.Color
	BotMsg     lipgloss.Color
	Dim        lipgloss.Color
	// Highlight marks search matches in the transcript.
	Highlight lipgloss.Color
}

var DefaultTheme = Theme{
	Name:       "default",
	Primary:    lipgloss.Color("#7C3AED"),
	Background: lipgloss.Color("#1E1E2E"),
	Foreground: lipgloss.Color("#CDD6F4"),
	SidebarBg:  lipgloss.Color("#181825"),
	InputBg:    lipgloss.Color("#313244"),
	Success:    lipgloss.Color("#A6E3A1"),
	Warning:    lipgloss.Color("#F9E2AF"),
	Error:      lipgloss.Color("#F38BA8"),
	UserMsg:    lipgloss.Color("#89B4FA"),
	BotMsg:     lipgloss.Color("#94E2D5"),
	Dim:        lipgloss.Color("#6C7086"),
	Highlight:  lipgloss.Color("#FAB387"),
}

var DarkTheme = Theme{
	Name:       "dark",
	Primary:    lipgloss.Color("#00FF00"),
	Background: lipgloss.Color("#000000"),
	Foreground: lipgloss.Color("#FFFFFF"),
	SidebarBg:  lipgloss.Color("#0A0A0A"),
	InputBg:    lipgloss.Color("#1A1A1A"),
	Success:    lipgloss.Color("#00FF00"),
	Warning:    lipgloss.Color("#FFFF00"),
	Error:      lipgloss.Color("#FF0000"),
	UserMsg:    lipgloss.Color("#00FFFF"),
	BotMsg:     lipgloss.Color("#FF00FF"),
	Dim:        lipgloss.Color("#808080"),
	Highlight:  lipgloss.Color("#FFA500"),
}

var LightTheme = Theme{
	Name:       "light",
	Primary:    lipgloss.Color("#268BD2"),
	Background: lipgloss.Color("#FDF6E3"),
	Foreground: lipgloss.Color("#657B83"),
	SidebarBg:  lipgloss.Color("#EEE8D5"),
	InputBg:    lipgloss.Color("#EEE8D5"),
	Success:    lipgloss.Color("#859900"),
	Warning:    lipgloss.Color("#B58900"),
	Error:      lipgloss.Color("#DC322F"),
	UserMsg:    lipgloss.Color("#268BD2"),
	BotMsg:     lipgloss.Color("#2AA198"),
	Dim:        lipgloss.Color("#93A1A1"),
	Highlight:  lipgloss.Color("#CB4B16"),
}

// Names lists the selectable themes.
var Names = []string{DefaultTheme.Name, DarkTheme.Name, LightTheme.Name}

// GetTheme returns the named theme, falling back to the default palette.
func GetTheme(name string) Theme {
	switch name {
	case "dark":
		return DarkTheme
	case "light":
		return LightTheme
	default:
		return DefaultTheme
	}
}

func (t Theme) SidebarStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.SidebarBg).
		Foreground(t.Foreground).
		Padding(0, 1)
}

func (t Theme) ActiveSessionStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.Primary).
		Foreground(t.Background).
		Bold(true).
		Padding(0, 1)
}

func (t Theme) InactiveSessionStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(t.Foreground).
		Padding(0, 1)
}

func (t Theme) ChatViewStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.Background).
		Foreground(t.Foreground).
		Padding(0, 1)
}

func (t Theme) InputAreaStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.InputBg).
		Foreground(t.Foreground).
		Padding(0, 1)
}

func (t Theme) StatusBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.Primary).
		Foreground(t.Background).
		Padding(0, 1)
}

func (t Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(t.Error).
		Bold(true)
}

func (t Theme) SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(t.Success)
}

func (t Theme) DimStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(t.Dim)
}

// PendingStyle renders placeholders that are still waiting on the backend.
func (t Theme) PendingStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(t.Dim).
		Italic(true)
}

func (t Theme) MatchStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(t.Highlight)
}

func (t Theme) SelectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary)
}

func (t Theme) DialogStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Warning).
		Padding(1, 2)
}
