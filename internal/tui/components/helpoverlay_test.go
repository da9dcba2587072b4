// ABOUTME: Tests for HelpOverlay component
// ABOUTME: Verifies visibility toggling and shortcut rendering
package components

import (
	"strings"
	"testing"

	"github.com/harper/chatsync/internal/tui/theme"
)

func TestHelpOverlay_HiddenByDefault(t *testing.T) {
	overlay := NewHelpOverlay(80, 40, theme.DefaultTheme)

	if overlay.IsVisible() {
		t.Error("expected overlay to be hidden by default")
	}
	if overlay.View() != "" {
		t.Error("hidden overlay should render nothing")
	}
}

func TestHelpOverlay_Toggle(t *testing.T) {
	overlay := NewHelpOverlay(80, 40, theme.DefaultTheme)

	overlay.Toggle()
	if !overlay.IsVisible() {
		t.Fatal("expected visible after toggle")
	}
	overlay.Hide()
	if overlay.IsVisible() {
		t.Fatal("expected hidden after Hide")
	}
	overlay.Show()
	overlay.Toggle()
	if overlay.IsVisible() {
		t.Fatal("expected hidden after second toggle")
	}
}

func TestHelpOverlay_View(t *testing.T) {
	overlay := NewHelpOverlay(100, 50, theme.DefaultTheme)
	overlay.Show()

	view := overlay.View()
	for _, want := range []string{"Keyboard Shortcuts", "Transcript", "Ctrl+N", "Edit your message", "Rate a reply"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestHelpOverlay_SetSize(t *testing.T) {
	overlay := NewHelpOverlay(80, 24, theme.DefaultTheme)
	overlay.SetSize(120, 40)

	if overlay.width != 120 || overlay.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", overlay.width, overlay.height)
	}
}
