// ABOUTME: In-memory chat backend served over httptest for client and engine tests
// ABOUTME: Implements the chat, history, edit, delete, feedback, search, export and event routes

package apitest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harper/chatsync/internal/api"
)

// EventsPath is where the fake serves its WebSocket event stream.
const EventsPath = "/ws/events"

type session struct {
	id      int
	title   string
	created time.Time
	updated time.Time
}

type message struct {
	id        int
	sessionID int
	typ       string
	content   string
	linked    int
	feedback  string
	created   time.Time
}

type failure struct {
	status int
	body   any
}

// Server is a fake backend. Ids are integers, as the real backend emits them.
type Server struct {
	*httptest.Server

	// Reply produces the bot answer for a user message.
	Reply func(text string) string
	// CSRFToken, when set, is required on every POST.
	CSRFToken string

	mu        sync.Mutex
	nextID    int
	sessions  map[int]*session
	messages  []*message
	failures  map[string]failure
	gates     map[string]chan struct{}
	hits      map[string]int
	csrfSeen  []string
	listeners map[*websocket.Conn]struct{}
	upgrader  websocket.Upgrader
}

func NewServer() *Server {
	s := &Server{
		Reply:     func(text string) string { return "Echo: " + text },
		sessions:  make(map[int]*session),
		failures:  make(map[string]failure),
		gates:     make(map[string]chan struct{}),
		hits:      make(map[string]int),
		listeners: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	e := api.DefaultEndpoints()
	mux := http.NewServeMux()
	mux.HandleFunc(e.Chat, s.post(s.handleChat))
	mux.HandleFunc(e.EditMessage, s.post(s.handleEdit))
	mux.HandleFunc(e.DeleteMessage, s.post(s.handleDeleteMessage))
	mux.HandleFunc(e.Feedback, s.post(s.handleFeedback))
	mux.HandleFunc(e.DeleteSession, s.post(s.handleDeleteSession))
	mux.HandleFunc(e.Export, s.post(s.handleExport))
	mux.HandleFunc(e.History, s.get(s.handleHistory))
	mux.HandleFunc(e.Search, s.get(s.handleSearch))
	mux.HandleFunc(EventsPath, s.handleEvents)

	s.Server = httptest.NewServer(mux)
	return s
}

// EventsURL is the ws:// address of the event stream.
func (s *Server) EventsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + EventsPath
}

func (s *Server) Close() {
	s.mu.Lock()
	for conn := range s.listeners {
		_ = conn.Close()
	}
	s.listeners = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
	s.Server.Close()
}

// Fail makes the next request to path answer with status and {"error": text}.
func (s *Server) Fail(path string, status int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, body: map[string]any{"error": text}}
}

// Reject makes the next request to path answer 200 with {"success": false}.
func (s *Server) Reject(path, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: http.StatusOK, body: map[string]any{"success": false, "error": text}}
}

// Respond makes the next request to path answer 200 with body verbatim.
func (s *Server) Respond(path string, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: http.StatusOK, body: body}
}

// Hold blocks requests to path until the returned release func is called.
func (s *Server) Hold(path string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[path] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, path)
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Hits counts requests received on path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// CSRFTokens returns the anti-forgery header of every POST, in order.
func (s *Server) CSRFTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.csrfSeen...)
}

// CreateSession seeds an empty session.
func (s *Server) CreateSession(title string) api.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return idOf(s.newSession(title).id)
}

// AddExchange seeds a linked user/bot pair into a session.
func (s *Server) AddExchange(sessionID api.ID, user, bot string) (userID, botID api.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sid, _ := strconv.Atoi(sessionID.String())
	u := s.addMessage(sid, api.TypeUser, user, 0)
	b := s.addMessage(sid, api.TypeBot, bot, u.id)
	return idOf(u.id), idOf(b.id)
}

// Messages returns a session's stored messages in order.
func (s *Server) Messages(sessionID api.ID) []api.HistoryMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid, _ := strconv.Atoi(sessionID.String())
	return s.historyLocked(sid)
}

// Feedback returns the feedback recorded on a message.
func (s *Server) Feedback(messageID api.ID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.findLocked(messageID); m != nil {
		return m.feedback
	}
	return ""
}

func (s *Server) post(h http.HandlerFunc) http.HandlerFunc {
	return s.wrap(http.MethodPost, h)
}

func (s *Server) get(h http.HandlerFunc) http.HandlerFunc {
	return s.wrap(http.MethodGet, h)
}

func (s *Server) wrap(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		gate := s.gates[r.URL.Path]
		f, failing := s.failures[r.URL.Path]
		delete(s.failures, r.URL.Path)
		if method == http.MethodPost {
			s.csrfSeen = append(s.csrfSeen, r.Header.Get(api.CSRFHeader))
		}
		s.mu.Unlock()

		if gate != nil {
			<-gate
		}

		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if method == http.MethodPost && s.CSRFToken != "" && r.Header.Get(api.CSRFHeader) != s.CSRFToken {
			writeError(w, http.StatusForbidden, "CSRF verification failed")
			return
		}
		if failing {
			writeJSON(w, f.status, f.body)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		writeError(w, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	s.mu.Lock()
	sess := s.sessions[atoi(req.SessionID)]
	created := sess == nil
	if created {
		sess = s.newSession(titleFor(text))
	}
	sess.updated = time.Now()
	u := s.addMessage(sess.id, api.TypeUser, text, 0)
	b := s.addMessage(sess.id, api.TypeBot, s.Reply(text), u.id)
	s.mu.Unlock()

	if created {
		s.broadcast(api.Event{Type: api.EventSessionsChanged, SessionID: idOf(sess.id)})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"session_id":   sess.id,
		"user_message": payload(u),
		"bot_message":  payload(b),
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req api.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	text := strings.TrimSpace(req.NewText)
	if req.MessageID == "" || text == "" {
		writeError(w, http.StatusBadRequest, "Message ID and new text are required")
		return
	}

	s.mu.Lock()
	m := s.findLocked(req.MessageID)
	if m == nil || m.typ != api.TypeUser {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Message not found or access denied")
		return
	}
	m.content = text

	var removed any
	for i, other := range s.messages {
		if other.linked == m.id && other.typ == api.TypeBot {
			removed = other.id
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	b := s.addMessage(m.sessionID, api.TypeBot, s.Reply(text), m.id)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Message updated successfully",
		"removed_bot_id":  removed,
		"new_bot_message": payload(b),
	})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	var req api.DeleteMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	s.mu.Lock()
	m := s.findLocked(req.MessageID)
	if m == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Message not found or access denied")
		return
	}

	doomed := map[int]bool{m.id: true}
	switch {
	case m.typ == api.TypeUser:
		for _, other := range s.messages {
			if other.linked == m.id {
				doomed[other.id] = true
				break
			}
		}
	case m.linked != 0:
		doomed[m.linked] = true
	}

	deleted := make([]int, 0, len(doomed))
	kept := s.messages[:0]
	for _, other := range s.messages {
		if doomed[other.id] {
			deleted = append(deleted, other.id)
			continue
		}
		kept = append(kept, other)
	}
	s.messages = kept
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Message(s) deleted successfully",
		"deleted_ids": deleted,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req api.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	if req.FeedbackType != api.FeedbackPositive && req.FeedbackType != api.FeedbackNegative {
		writeError(w, http.StatusBadRequest, "Invalid feedback type")
		return
	}

	s.mu.Lock()
	m := s.findLocked(req.MessageID)
	if m != nil {
		m.feedback = req.FeedbackType
	}
	s.mu.Unlock()

	if m == nil {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Feedback recorded"})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	var req api.DeleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	s.mu.Lock()
	sid := atoi(req.SessionID)
	sess, ok := s.sessions[sid]
	if ok {
		delete(s.sessions, sid)
		kept := s.messages[:0]
		for _, m := range s.messages {
			if m.sessionID != sid {
				kept = append(kept, m)
			}
		}
		s.messages = kept
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Chat session not found")
		return
	}
	s.broadcast(api.Event{Type: api.EventSessionsChanged, SessionID: req.SessionID})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Chat session %q deleted successfully", sess.title),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw := r.URL.Query().Get("session_id"); raw != "" {
		sess := s.sessions[atoi(api.ID(raw))]
		if sess == nil {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"session": map[string]any{
				"id":         sess.id,
				"title":      sess.title,
				"created_at": sess.created.Format(time.RFC3339),
			},
			"messages": s.historyLocked(sess.id),
		})
		return
	}

	list := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].updated.Equal(list[j].updated) {
			return list[i].id > list[j].id
		}
		return list[i].updated.After(list[j].updated)
	})

	sessions := make([]map[string]any, 0, len(list))
	for _, sess := range list {
		count := 0
		for _, m := range s.messages {
			if m.sessionID == sess.id {
				count++
			}
		}
		sessions = append(sessions, map[string]any{
			"id":            sess.id,
			"title":         sess.title,
			"created_at":    sess.created.Format(time.RFC3339),
			"updated_at":    sess.updated.Format(time.RFC3339),
			"message_count": count,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sessions": sessions})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if len(query) < 2 {
		writeError(w, http.StatusBadRequest, "Query must be at least 2 characters")
		return
	}
	sid := atoi(api.ID(r.URL.Query().Get("session_id")))
	needle := strings.ToLower(query)

	s.mu.Lock()
	results := []api.SearchHit{}
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if sid != 0 && m.sessionID != sid {
			continue
		}
		if !strings.Contains(strings.ToLower(m.content), needle) {
			continue
		}
		title := ""
		if sess := s.sessions[m.sessionID]; sess != nil {
			title = sess.title
		}
		results = append(results, api.SearchHit{
			ID:           idOf(m.id),
			Content:      m.content,
			Type:         m.typ,
			Timestamp:    m.created.Format(time.RFC3339),
			SessionID:    idOf(m.sessionID),
			SessionTitle: title,
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": results, "count": len(results)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}
	format := strings.ToLower(req.Format)
	if format == "" {
		format = api.FormatText
	}
	if format != api.FormatText && format != api.FormatMarkdown && format != api.FormatPDF {
		writeError(w, http.StatusBadRequest, "Invalid format. Use txt, md, or pdf")
		return
	}

	s.mu.Lock()
	sess := s.sessions[atoi(req.SessionID)]
	var history []api.HistoryMessage
	if sess != nil {
		history = s.historyLocked(sess.id)
	}
	s.mu.Unlock()

	if sess == nil {
		writeError(w, http.StatusNotFound, "Session not found or access denied")
		return
	}
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "No messages found in this session")
		return
	}

	var b strings.Builder
	contentType := "text/plain"
	switch format {
	case api.FormatText:
		fmt.Fprintf(&b, "Chat Export: %s\n%s\n\n", sess.title, strings.Repeat("=", 50))
		for _, m := range history {
			fmt.Fprintf(&b, "%s:\n%s\n\n", sender(m.Type), m.Content)
		}
	case api.FormatMarkdown:
		contentType = "text/markdown"
		fmt.Fprintf(&b, "# Chat Export: %s\n\n", sess.title)
		for _, m := range history {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", sender(m.Type), m.Content)
		}
	case api.FormatPDF:
		contentType = "application/pdf"
		b.WriteString("%PDF-1.4\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%% %s: %s\n", sender(m.Type), m.Content)
		}
		b.WriteString("%%EOF\n")
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="chat-export-%s.%s"`, req.SessionID, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("apitest: upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.listeners[conn] = struct{}{}
	s.mu.Unlock()

	// Drain until the client goes away.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.listeners, conn)
			s.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes an event to every connected event-stream client.
func (s *Server) Broadcast(ev api.Event) {
	s.broadcast(ev)
}

// Listeners reports how many event-stream clients are connected.
func (s *Server) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Server) broadcast(ev api.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.listeners {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("apitest: broadcast failed: %v", err)
		}
	}
}

func (s *Server) newSession(title string) *session {
	s.nextID++
	now := time.Now()
	sess := &session{id: s.nextID, title: title, created: now, updated: now}
	s.sessions[sess.id] = sess
	return sess
}

func (s *Server) addMessage(sessionID int, typ, content string, linked int) *message {
	s.nextID++
	m := &message{id: s.nextID, sessionID: sessionID, typ: typ, content: content, linked: linked, created: time.Now()}
	s.messages = append(s.messages, m)
	return m
}

func (s *Server) findLocked(id api.ID) *message {
	n := atoi(id)
	for _, m := range s.messages {
		if m.id == n {
			return m
		}
	}
	return nil
}

func (s *Server) historyLocked(sessionID int) []api.HistoryMessage {
	out := []api.HistoryMessage{}
	for _, m := range s.messages {
		if m.sessionID != sessionID {
			continue
		}
		h := api.HistoryMessage{
			ID:        idOf(m.id),
			Type:      m.typ,
			Content:   m.content,
			Timestamp: m.created.Format(time.RFC3339),
		}
		if m.linked != 0 {
			h.LinkedMessageID = idOf(m.linked)
		}
		out = append(out, h)
	}
	return out
}

func payload(m *message) map[string]any {
	return map[string]any{
		"id":        m.id,
		"content":   m.content,
		"timestamp": m.created.Format(time.RFC3339),
	}
}

func titleFor(text string) string {
	r := []rune(text)
	if len(r) > 50 {
		return string(r[:50]) + "..."
	}
	return text
}

func sender(typ string) string {
	if typ == api.TypeUser {
		return "You"
	}
	return "Assistant"
}

func idOf(n int) api.ID {
	return api.ID(strconv.Itoa(n))
}

func atoi(id api.ID) int {
	n, _ := strconv.Atoi(id.String())
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("apitest: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, text string) {
	writeJSON(w, status, map[string]any{"error": text})
}
