// ABOUTME: Message and session value types for the active chat transcript
// ABOUTME: Roles, lifecycle status, temporary id generation, and display helpers

package chat

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Role int

const (
	RoleUser Role = iota
	RoleBot
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleBot:
		return "bot"
	default:
		return "unknown"
	}
}

func (r Role) Icon() string {
	switch r {
	case RoleUser:
		return "👤"
	case RoleBot:
		return "🤖"
	default:
		return "❓"
	}
}

// Label is the speaker name shown in transcripts.
func (r Role) Label() string {
	if r == RoleUser {
		return "You"
	}
	return "Assistant"
}

// ParseRole maps a backend message type onto a Role.
func ParseRole(s string) Role {
	if s == "user" {
		return RoleUser
	}
	return RoleBot
}

type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Message is one transcript entry. Values are copied in and out of the
// store; mutate through the store only.
type Message struct {
	ID        string
	Role      Role
	Content   string
	SessionID string
	LinkedID  string
	Status    Status
	Timestamp time.Time
	Feedback  string
}

// Editable reports whether the message may enter edit mode.
func (m Message) Editable() bool {
	return m.Role == RoleUser && m.Status == StatusConfirmed
}

// NewTempID returns a client-side id of the form msg_<unixmillis>_<9 chars>.
func NewTempID() string {
	return fmt.Sprintf("msg_%d_%s", time.Now().UnixMilli(), randomSuffix(9))
}

// NewPlaceholderID returns an id for a transient "generating" entry.
func NewPlaceholderID() string {
	return fmt.Sprintf("temp-%d-%s", time.Now().UnixMilli(), randomSuffix(6))
}

// IsTemporaryID reports whether id was generated locally.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, "msg_") || strings.HasPrefix(id, "temp-")
}

func randomSuffix(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

const displayTitleRunes = 25

// Session identifies a conversation. An empty ID means the session has not
// been created on the backend yet.
type Session struct {
	ID           string
	Title        string
	UpdatedAt    string
	MessageCount int
}

// IsPersisted reports whether the backend has assigned an id.
func (s Session) IsPersisted() bool {
	return s.ID != ""
}

// DisplayTitle is the sidebar title, truncated to 25 characters.
func (s Session) DisplayTitle() string {
	title := s.Title
	if title == "" {
		title = "New chat"
	}
	if utf8.RuneCountInString(title) <= displayTitleRunes {
		return title
	}
	return string([]rune(title)[:displayTitleRunes]) + "..."
}

// titleFor derives a provisional session title from the first message.
func titleFor(text string) string {
	const maxRunes = 50
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return string([]rune(text)[:maxRunes]) + "..."
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}
