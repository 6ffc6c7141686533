// Package apperr defines the failure taxonomy shared by every component.
// No raw errors cross a component boundary: fallible operations return an
// *Error carrying one of the kinds below so that callers can branch on
// failure class without inspecting message text.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	// KindNetwork covers timeouts, unreachable hosts and reset connections.
	KindNetwork Kind = "NETWORK_FAILURE"
	// KindDatabase covers constraint violations and local store I/O errors.
	KindDatabase Kind = "DATABASE_FAILURE"
	// KindValidation covers caller-supplied data failing a precondition.
	KindValidation Kind = "VALIDATION_FAILURE"
	// KindServer covers well-formed but semantically erroneous remote responses.
	KindServer Kind = "SERVER_FAILURE"
	// KindUnknown is the catch-all.
	KindUnknown Kind = "UNKNOWN_FAILURE"
)

// Error is the application error type.
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

// New creates an Error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error wrapping an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from any error chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// InvalidTransition builds the validation error returned when a workflow
// action is attempted from an illegal source state.
func InvalidTransition(action string, status int) *Error {
	return Newf(KindValidation, "invalid transition: %s not allowed from status %d", action, status)
}

// IsInvalidTransition reports whether err is a rejected workflow transition.
func IsInvalidTransition(err error) bool {
	var ae *Error
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Kind == KindValidation && strings.HasPrefix(ae.Message, "invalid transition")
}

// transport error fragments observed from net/http and the sqlite driver
var networkFragments = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"eof",
}

// ClassifyTransport maps a raw transport error onto the taxonomy by
// substring matching on the underlying message.
func ClassifyTransport(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range networkFragments {
		if strings.Contains(msg, frag) {
			return Wrap(KindNetwork, "transport failure", err)
		}
	}
	return Wrap(KindUnknown, "unclassified failure", err)
}

// ClassifyDatabase wraps a local store error.
func ClassifyDatabase(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Wrap(KindDatabase, op, err)
}
