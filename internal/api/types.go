// ABOUTME: Wire types for the chat backend's JSON-over-HTTP API
// ABOUTME: Request/response bodies, the success envelope, and a number-or-string ID

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an opaque backend identifier. The backend emits integer ids; the
// client treats them as strings and sends canonical decimal ids back as
// numbers. Anything else, such as "007" or "+5", goes back as a string.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*id = ID(n.String())
	}
	return nil
}

// Envelope carries the contract outcome. Failures are reported in Success,
// not in the HTTP status.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (e *Envelope) envelope() *Envelope { return e }

type enveloped interface {
	envelope() *Envelope
}

// MessagePayload is a server-confirmed message as returned by send and edit.
type MessagePayload struct {
	ID        ID     `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

type SendRequest struct {
	Message   string `json:"message"`
	SessionID ID     `json:"session_id"`
}

type SendResponse struct {
	Envelope
	SessionID   ID              `json:"session_id"`
	UserMessage *MessagePayload `json:"user_message,omitempty"`
	BotMessage  *MessagePayload `json:"bot_message,omitempty"`
}

type EditRequest struct {
	MessageID ID     `json:"message_id"`
	NewText   string `json:"new_text"`
}

type EditResponse struct {
	Envelope
	RemovedBotID  ID              `json:"removed_bot_id,omitempty"`
	NewBotMessage *MessagePayload `json:"new_bot_message,omitempty"`
}

type DeleteMessageRequest struct {
	MessageID ID `json:"message_id"`
}

// DeleteMessageResponse lists every id the backend removed. DeletedIDs is nil
// when the field was absent from the reply.
type DeleteMessageResponse struct {
	Envelope
	DeletedIDs []ID `json:"deleted_ids"`
}

// Feedback types accepted by the backend.
const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

type FeedbackRequest struct {
	MessageID    ID     `json:"message_id"`
	FeedbackType string `json:"feedback_type"`
}

type FeedbackResponse struct {
	Envelope
}

// Message types in history payloads.
const (
	TypeUser = "user"
	TypeBot  = "bot"
)

type HistoryMessage struct {
	ID              ID     `json:"id"`
	Type            string `json:"type"`
	Content         string `json:"content"`
	Timestamp       string `json:"timestamp,omitempty"`
	LinkedMessageID ID     `json:"linked_message_id,omitempty"`
}

type SessionInfo struct {
	ID           ID     `json:"id"`
	Title        string `json:"title"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`
}

type SessionHistoryResponse struct {
	Envelope
	Session  SessionInfo      `json:"session"`
	Messages []HistoryMessage `json:"messages"`
}

type SessionListResponse struct {
	Envelope
	Sessions []SessionInfo `json:"sessions"`
}

type DeleteSessionRequest struct {
	SessionID ID `json:"session_id"`
}

type DeleteSessionResponse struct {
	Envelope
}

// Export formats accepted by the backend.
const (
	FormatText     = "txt"
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
)

type ExportRequest struct {
	SessionID ID     `json:"session_id"`
	Format    string `json:"format"`
}

// Export is a downloaded transcript file.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

type SearchHit struct {
	ID           ID     `json:"id"`
	Content      string `json:"content"`
	Type         string `json:"type"`
	Timestamp    string `json:"timestamp,omitempty"`
	SessionID    ID     `json:"session_id"`
	SessionTitle string `json:"session_title"`
}

type SearchResponse struct {
	Envelope
	Results []SearchHit `json:"results"`
	Count   int         `json:"count"`
}

// Event types pushed over the event stream.
const (
	EventSessionsChanged = "sessions_changed"
)

// Event is a server push notification.
type Event struct {
	Type      string `json:"type"`
	SessionID ID     `json:"session_id,omitempty"`
}
