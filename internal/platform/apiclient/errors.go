package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindOther Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServer
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	default:
		return "other"
	}
}

// ErrMutationInFlight is returned when a write for the same resource is
// already pending.
var ErrMutationInFlight = errors.New("A request for this item is already in progress")

// Error is a failed API call. Status is zero when no response was received.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Method  string
	Path    string
	cause   error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api %s %s: %v", e.Method, e.Path, e.cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s %s: %d", e.Method, e.Path, e.Status)
}

func (e *Error) Unwrap() error { return e.cause }

// UserMessage is the notification text for this failure.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Session expired. Please login again."
	case KindForbidden:
		return "You do not have permission to perform this action."
	case KindNotFound:
		return "Resource not found."
	case KindServer:
		return "Server error. Please try again later."
	}
	if e.Message != "" {
		return e.Message
	}
	return "Something went wrong"
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindOther
	}
}

// KindOf returns the kind of an API error, or KindOther for anything else.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindOther
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// UserMessage maps any error to the text shown to the admin.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if errors.Is(err, ErrMutationInFlight) {
		return ErrMutationInFlight.Error()
	}
	return "Something went wrong"
}
