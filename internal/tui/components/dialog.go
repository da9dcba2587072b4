// ABOUTME: Modal dialog asking the user to pick one of a few keyed options
// ABOUTME: Used for delete confirmations and choosing an export format
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/harper/chatsync/internal/tui/theme"
)

type DialogOption struct {
	Key   string
	Label string
	// Value is returned by Choose. Empty means the option dismisses.
	Value string
}

type Dialog struct {
	Title   string
	Body    string
	Options []DialogOption
	theme   theme.Theme
}

// NewConfirmDialog builds a yes/no dialog. Choose returns "yes" for y.
func NewConfirmDialog(title, body string, th theme.Theme) *Dialog {
	return &Dialog{
		Title: title,
		Body:  body,
		Options: []DialogOption{
			{Key: "y", Label: "Yes", Value: "yes"},
			{Key: "n", Label: "No"},
		},
		theme: th,
	}
}

func NewDialog(title, body string, options []DialogOption, th theme.Theme) *Dialog {
	return &Dialog{Title: title, Body: body, Options: options, theme: th}
}

// Choose maps a key press to an option. done reports whether the dialog
// should close; value is empty when it was dismissed.
func (d *Dialog) Choose(key string) (value string, done bool) {
	if key == "esc" {
		return "", true
	}
	for _, opt := range d.Options {
		if strings.EqualFold(opt.Key, key) {
			return opt.Value, true
		}
	}
	return "", false
}

func (d *Dialog) View(width int) string {
	inner := min(56, width-8)
	if inner < 10 {
		inner = 10
	}

	var sb strings.Builder
	sb.WriteString("⚠️  ")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(d.theme.Warning).Render(d.Title))
	if d.Body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(wordwrap.String(d.Body, inner))
	}
	sb.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(d.theme.Primary)
	choices := make([]string, 0, len(d.Options)+1)
	for _, opt := range d.Options {
		choices = append(choices, keyStyle.Render("["+opt.Key+"]")+" "+opt.Label)
	}
	choices = append(choices, d.theme.DimStyle().Render("[esc] Cancel"))
	sb.WriteString(strings.Join(choices, "  "))

	return d.theme.DialogStyle().Width(inner + 4).Render(sb.String())
}
