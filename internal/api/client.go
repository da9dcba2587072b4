// ABOUTME: HTTP client for the chat backend: send, edit, delete, feedback, history, export, search
// ABOUTME: Maps transport failures, 404s, and {"success": false} replies onto typed errors

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	chaterrors "github.com/harper/chatsync/internal/errors"
	"github.com/harper/chatsync/internal/logger"
)

// CSRFHeader carries the anti-forgery token on every mutating request.
const CSRFHeader = "X-CSRFToken"

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
)

// Endpoints holds the request paths relative to the base URL.
type Endpoints struct {
	Chat          string
	EditMessage   string
	DeleteMessage string
	Feedback      string
	History       string
	DeleteSession string
	Export        string
	Search        string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Chat:          "/api/chat/",
		EditMessage:   "/api/chat/edit-message/",
		DeleteMessage: "/api/chat/delete-message/",
		Feedback:      "/api/chat/feedback/",
		History:       "/api/chat/history/",
		DeleteSession: "/api/delete-chat/",
		Export:        "/api/chat/export/",
		Search:        "/api/chat/search/",
	}
}

type Client struct {
	baseURL   string
	http      *http.Client
	csrfToken string
	endpoints Endpoints
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithCSRFToken(token string) Option {
	return func(c *Client) { c.csrfToken = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithEndpoints(e Endpoints) Option {
	return func(c *Client) { c.endpoints = e }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		endpoints: DefaultEndpoints(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// target names a call for error reporting.
type target struct {
	op   string
	kind string
	id   ID
}

func (c *Client) SendMessage(ctx context.Context, text string, sessionID ID) (*SendResponse, error) {
	var resp SendResponse
	t := target{op: "send message", kind: "session", id: sessionID}
	if err := c.post(ctx, t, c.endpoints.Chat, SendRequest{Message: text, SessionID: sessionID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) EditMessage(ctx context.Context, messageID ID, newText string) (*EditResponse, error) {
	var resp EditResponse
	t := target{op: "edit message", kind: "message", id: messageID}
	if err := c.post(ctx, t, c.endpoints.EditMessage, EditRequest{MessageID: messageID, NewText: newText}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteMessage(ctx context.Context, messageID ID) (*DeleteMessageResponse, error) {
	var resp DeleteMessageResponse
	t := target{op: "delete message", kind: "message", id: messageID}
	if err := c.post(ctx, t, c.endpoints.DeleteMessage, DeleteMessageRequest{MessageID: messageID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, messageID ID, feedbackType string) error {
	var resp FeedbackResponse
	t := target{op: "submit feedback", kind: "message", id: messageID}
	return c.post(ctx, t, c.endpoints.Feedback, FeedbackRequest{MessageID: messageID, FeedbackType: feedbackType}, &resp)
}

func (c *Client) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	var resp SessionListResponse
	t := target{op: "list sessions", kind: "session"}
	if err := c.get(ctx, t, c.endpoints.History, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) LoadSession(ctx context.Context, sessionID ID) (*SessionHistoryResponse, error) {
	var resp SessionHistoryResponse
	t := target{op: "load session", kind: "session", id: sessionID}
	query := url.Values{"session_id": {sessionID.String()}}
	if err := c.get(ctx, t, c.endpoints.History, query, &resp); err != nil {
		return nil, err
	}
	if resp.Session.ID == "" {
		resp.Session.ID = sessionID
	}
	return &resp, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID ID) error {
	var resp DeleteSessionResponse
	t := target{op: "delete session", kind: "session", id: sessionID}
	return c.post(ctx, t, c.endpoints.DeleteSession, DeleteSessionRequest{SessionID: sessionID}, &resp)
}

func (c *Client) Search(ctx context.Context, query string, sessionID ID) (*SearchResponse, error) {
	var resp SearchResponse
	t := target{op: "search", kind: "session", id: sessionID}
	params := url.Values{"query": {query}}
	if sessionID != "" {
		params.Set("session_id", sessionID.String())
	}
	if err := c.get(ctx, t, c.endpoints.Search, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExportSession downloads a transcript. Failures come back as an HTTP error
// status with a {"error": ...} body rather than a success envelope.
func (c *Client) ExportSession(ctx context.Context, sessionID ID, format string) (*Export, error) {
	t := target{op: "export session", kind: "session", id: sessionID}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoints.Export, nil, ExportRequest{SessionID: sessionID, Format: format})
	if err != nil {
		return nil, chaterrors.NewTransportError(t.op, 0, err)
	}

	status, header, body, err := c.roundTrip(req)
	if err != nil {
		return nil, chaterrors.NewTransportError(t.op, 0, err)
	}

	if status < 200 || status > 299 {
		text := errorText(body)
		if status == http.StatusNotFound {
			return nil, &chaterrors.NotFoundError{Kind: t.kind, ID: t.id.String(), Message: text}
		}
		if text != "" {
			return nil, chaterrors.NewBackendRejection(t.op, text)
		}
		return nil, &chaterrors.TransportError{Op: t.op, StatusCode: status}
	}

	export := &Export{
		ContentType: header.Get("Content-Type"),
		Data:        body,
		Filename:    fmt.Sprintf("chat-export-%s.%s", sessionID, format),
	}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		export.Filename = params["filename"]
	}
	return export, nil
}

func (c *Client) post(ctx context.Context, t target, path string, body any, out enveloped) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return chaterrors.NewTransportError(t.op, 0, err)
	}
	return c.do(req, t, out)
}

func (c *Client) get(ctx context.Context, t target, path string, query url.Values, out enveloped) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return chaterrors.NewTransportError(t.op, 0, err)
	}
	return c.do(req, t, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.csrfToken != "" {
		req.Header.Set(CSRFHeader, c.csrfToken)
	}
	return req, nil
}

func (c *Client) roundTrip(req *http.Request) (int, http.Header, []byte, error) {
	logger.Debug("%s %s", req.Method, req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

func (c *Client) do(req *http.Request, t target, out enveloped) error {
	status, _, body, err := c.roundTrip(req)
	if err != nil {
		return chaterrors.NewTransportError(t.op, status, err)
	}

	if status == http.StatusNotFound {
		return &chaterrors.NotFoundError{Kind: t.kind, ID: t.id.String(), Message: errorText(body)}
	}
	if status < 200 || status > 299 {
		return &chaterrors.TransportError{Op: t.op, StatusCode: status, Detail: errorText(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return chaterrors.NewTransportError(t.op, status, fmt.Errorf("malformed response: %w", err))
	}

	env := out.envelope()
	if !env.Success {
		logger.Warn("%s rejected: %s", t.op, env.Error)
		return chaterrors.NewBackendRejection(t.op, env.Error)
	}
	return nil
}

// errorText extracts the "error" field from a JSON body, if any.
func errorText(body []byte) string {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Error
}
