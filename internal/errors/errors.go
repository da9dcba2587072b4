// ABOUTME: Error kinds for chat state synchronization failures
// ABOUTME: Validation, not-found, transport, and backend-rejection errors plus user-facing text

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrSuperseded reports that a response arrived after the view it targeted was replaced.
// The result was discarded; nothing was applied.
var ErrSuperseded = stderrors.New("response superseded by a newer session view")

// ValidationError is returned before any network call when input is unusable.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing session or message, locally or on the backend.
type NotFoundError struct {
	Kind    string // "session" or "message"
	ID      string
	Message string // backend text when available
}

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ID == "":
		return e.Kind + " not found"
	default:
		return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
	}
}

// TransportError covers network failures, non-2xx statuses, and malformed JSON.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Detail     string
	Err        error
}

func NewTransportError(op string, statusCode int, err error) *TransportError {
	return &TransportError{Op: op, StatusCode: statusCode, Err: err}
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport failure"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BackendRejection is a well-formed {"success": false, "error": ...} reply.
type BackendRejection struct {
	Op      string
	Message string
}

func NewBackendRejection(op, message string) *BackendRejection {
	return &BackendRejection{Op: op, Message: message}
}

func (e *BackendRejection) Error() string {
	if e.Message == "" {
		return e.Op + " rejected by backend"
	}
	return e.Message
}

func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return stderrors.As(err, &target)
}

func IsTransport(err error) bool {
	var target *TransportError
	return stderrors.As(err, &target)
}

func IsRejection(err error) bool {
	var target *BackendRejection
	return stderrors.As(err, &target)
}

func IsSuperseded(err error) bool {
	return stderrors.Is(err, ErrSuperseded)
}

// UserMessage returns the text a renderer should show for err. Backend
// rejections are shown verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		rejection  *BackendRejection
		validation *ValidationError
		notFound   *NotFoundError
		transport  *TransportError
	)
	switch {
	case stderrors.As(err, &rejection):
		return rejection.Error()
	case stderrors.As(err, &validation):
		return capitalize(validation.Reason)
	case stderrors.As(err, &notFound):
		return capitalize(notFound.Error())
	case stderrors.As(err, &transport):
		return "Connection problem: " + transport.Error()
	case IsSuperseded(err):
		return ""
	default:
		return err.Error()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
