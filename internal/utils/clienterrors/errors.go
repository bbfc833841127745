// Package clienterrors defines the error taxonomy shared by the client core.
package clienterrors

import (
	"errors"
	"fmt"
)

// Kind categorizes a client-core error.
type Kind string

const (
	// KindNetworkFailure marks transient transport failures (fetch, subscribe,
	// send did not complete). Callers may retry the whole operation.
	KindNetworkFailure Kind = "network_failure"
	// KindUnauthorized marks a missing or expired token. Surfaced to the
	// caller, never retried locally.
	KindUnauthorized Kind = "unauthorized"
	// KindAlreadyRequested marks a duplicate request attempt against a listing
	// the current user already requested.
	KindAlreadyRequested Kind = "already_requested"
	// KindSubscriptionUnavailable marks a missing push capability or a failed
	// subscription handshake. Not user-facing; triggers the polling fallback.
	KindSubscriptionUnavailable Kind = "subscription_unavailable"
	// KindRequestFailed marks a failed request submission. Terminal for that
	// attempt; the user retries the whole submission.
	KindRequestFailed Kind = "request_failed"
	// KindSendFailed marks a failed message send. The attempted message is
	// never appended to the log.
	KindSendFailed Kind = "send_failed"
)

// Error carries a Kind alongside a message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of err, or the empty string when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
