// ABOUTME: Tests for InputArea text entry and edit mode
// ABOUTME: Verifies value handling, focus, and draft restoration after editing
package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/chatsync/internal/tui/theme"
)

func TestNewInputArea(t *testing.T) {
	ia := NewInputArea(80, 5, theme.DefaultTheme)

	require.NotNil(t, ia)
	assert.Equal(t, 80, ia.width)
	assert.False(t, ia.Focused())
	assert.False(t, ia.Editing())
}

func TestInputArea_ValueAndClear(t *testing.T) {
	ia := NewInputArea(80, 5, theme.DefaultTheme)
	assert.Equal(t, "", ia.GetValue())

	ia.SetValue("Hello, world!")
	assert.Equal(t, "Hello, world!", ia.GetValue())

	ia.Clear()
	assert.Equal(t, "", ia.GetValue())
}

func TestInputArea_FocusBlur(t *testing.T) {
	ia := NewInputArea(80, 5, theme.DefaultTheme)

	ia.Focus()
	assert.True(t, ia.Focused())
	assert.True(t, ia.textarea.Focused())

	ia.Blur()
	assert.False(t, ia.Focused())
}

func TestInputArea_TypingWhenFocused(t *testing.T) {
	ia := NewInputArea(80, 5, theme.DefaultTheme)
	ia.Focus()

	ia.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hey")})
	assert.Equal(t, "hey", ia.GetValue())
}

func TestInputArea_EditModeRestoresDraft(t *testing.T) {
	ia := NewInputArea(80, 5, theme.DefaultTheme)
	ia.SetValue("half-typed draft")

	ia.BeginEdit("Hi")
	assert.True(t, ia.Editing())
	assert.Equal(t, "Hi", ia.GetValue())

	// Switching targets keeps the first draft.
	ia.BeginEdit("Other")
	assert.Equal(t, "Other", ia.GetValue())

	ia.EndEdit()
	assert.False(t, ia.Editing())
	assert.Equal(t, "half-typed draft", ia.GetValue())

	ia.EndEdit()
	assert.Equal(t, "half-typed draft", ia.GetValue())
}

func TestInputArea_SetSize(t *testing.T) {
	ia := NewInputArea(80, 5, theme.DefaultTheme)
	ia.SetSize(60, 3)

	assert.Equal(t, 60, ia.width)
	assert.Equal(t, 3, ia.height)
	assert.NotEmpty(t, ia.View())
}
