// ABOUTME: Toast notifications for operation results and backend errors
// ABOUTME: Severities info, warning, error, success; each toast dismisses itself by id
package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	chaterrors "github.com/harper/chatsync/internal/errors"
	"github.com/harper/chatsync/internal/tui/theme"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

type Notification struct {
	ID        int
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// NotificationComponent manages a short stack of toasts, newest last.
type NotificationComponent struct {
	notifications []Notification
	nextID        int
	width         int
	theme         theme.Theme
	// DismissAfter is how long a toast stays up. Zero keeps toasts until dismissed.
	DismissAfter time.Duration
}

// DismissNotificationMsg removes the toast with the given id, if still shown.
type DismissNotificationMsg struct {
	ID int
}

const (
	maxNotifications  = 3
	notificationWidth = 40
)

func NewNotificationComponent(width int, th theme.Theme) *NotificationComponent {
	return &NotificationComponent{
		width:        width,
		theme:        th,
		DismissAfter: 4 * time.Second,
	}
}

// Show pushes a toast and returns its auto-dismiss command.
func (nc *NotificationComponent) Show(message string, severity Severity) tea.Cmd {
	nc.nextID++
	n := Notification{ID: nc.nextID, Message: message, Severity: severity, CreatedAt: time.Now()}

	nc.notifications = append(nc.notifications, n)
	if len(nc.notifications) > maxNotifications {
		nc.notifications = nc.notifications[len(nc.notifications)-maxNotifications:]
	}

	if nc.DismissAfter <= 0 {
		return nil
	}
	id := n.ID
	return tea.Tick(nc.DismissAfter, func(time.Time) tea.Msg {
		return DismissNotificationMsg{ID: id}
	})
}

// ShowError shows the user-facing text of err. Superseded operations are
// silent, so nothing is shown for them.
func (nc *NotificationComponent) ShowError(err error) tea.Cmd {
	text := chaterrors.UserMessage(err)
	if text == "" {
		return nil
	}
	severity := SeverityError
	if chaterrors.IsValidation(err) {
		severity = SeverityWarning
	}
	return nc.Show(text, severity)
}

func (nc *NotificationComponent) Dismiss(id int) {
	for i, n := range nc.notifications {
		if n.ID == id {
			nc.notifications = append(nc.notifications[:i], nc.notifications[i+1:]...)
			return
		}
	}
}

// Messages returns the texts currently shown, oldest first.
func (nc *NotificationComponent) Messages() []string {
	out := make([]string, len(nc.notifications))
	for i, n := range nc.notifications {
		out[i] = n.Message
	}
	return out
}

func (nc *NotificationComponent) Update(msg tea.Msg) tea.Cmd {
	if dismiss, ok := msg.(DismissNotificationMsg); ok {
		nc.Dismiss(dismiss.ID)
	}
	return nil
}

func (nc *NotificationComponent) View() string {
	if len(nc.notifications) == 0 {
		return ""
	}

	views := make([]string, 0, len(nc.notifications))
	for _, n := range nc.notifications {
		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(nc.borderColor(n.Severity)).
			Padding(0, 1).
			Width(notificationWidth)

		text := wordwrap.String(icon(n.Severity)+" "+n.Message, notificationWidth-4)
		views = append(views, style.Render(text))
	}
	return lipgloss.JoinVertical(lipgloss.Left, views...)
}

func icon(s Severity) string {
	switch s {
	case SeverityWarning:
		return "⚠️"
	case SeverityError:
		return "❌"
	case SeveritySuccess:
		return "✅"
	default:
		return "ℹ️"
	}
}

func (nc *NotificationComponent) borderColor(s Severity) lipgloss.Color {
	switch s {
	case SeverityWarning:
		return nc.theme.Warning
	case SeverityError:
		return nc.theme.Error
	case SeveritySuccess:
		return nc.theme.Success
	default:
		return nc.theme.UserMsg
	}
}
