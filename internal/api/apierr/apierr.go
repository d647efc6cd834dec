// Package apierr defines the typed error taxonomy used across the request
// pipeline. Errors are plain values carried up the call stack; a single
// translation step in the REST layer maps them to HTTP status codes and a
// structured error body.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the three base classes. Anything that
// reaches the translator without a kind is treated as unclassified (501).
type Kind int

const (
	KindUnknown Kind = iota
	KindPermissionDenied
	KindNotFound
	KindServer
)

// Error is a typed pipeline error. Code is a stable numeric identifier per
// taxonomy leaf; Message is the operator-facing description.
type Error struct {
	Kind    Kind
	Code    int
	Message string

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an underlying error for logging and errors.Is chains.
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

// HTTPStatus maps the error kind to the wire status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindServer:
		return http.StatusInternalServerError
	default:
		return http.StatusNotImplemented
	}
}

// StatusText returns the canned human-readable text for a status code
// produced by HTTPStatus.
func StatusText(status int) string {
	switch status {
	case http.StatusForbidden:
		return "Permission denied"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusInternalServerError:
		return "Server error"
	default:
		return "Unknown error"
	}
}

// From converts an arbitrary error into an *Error. Errors that are not part
// of the taxonomy come back as unclassified, which the translator renders as
// 501 and always logs with a stack trace.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Kind: KindUnknown, Code: CodeUnclassified, Message: "unclassified error", cause: err}
}

func newError(kind Kind, code int, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}
