// ABOUTME: View rendering for the chat TUI (converts model state to terminal output)
// ABOUTME: Lays out sidebar, transcript, search bar, input, and status bar with overlays
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.helpOverlay.IsVisible() {
		return m.helpOverlay.View()
	}

	main := []string{m.chatView.View()}
	if m.searchBar.Active() {
		main = append(main, m.searchBar.View())
	}
	main = append(main, m.inputArea.View())
	content := lipgloss.JoinVertical(lipgloss.Left, main...)

	if m.sidebarVisible {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), content)
	}

	full := lipgloss.JoinVertical(lipgloss.Left, content, m.statusBar.View())

	if m.dialog != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.dialog.View(m.width))
	}

	if toast := m.notifications.View(); toast != "" {
		full = lipgloss.JoinVertical(lipgloss.Right, toast, full)
	}

	return full
}
