// Package yerr defines the error-kind taxonomy shared across the gateway's
// components, so each boundary (tool dispatcher, OAuth endpoints, auth
// middleware) can convert a single typed error into its own wire shape.
package yerr

import "fmt"

// Kind classifies an error for wire-shape conversion at each boundary.
type Kind string

const (
	InvalidRequest Kind = "invalid_request"
	InvalidGrant   Kind = "invalid_grant"
	InvalidClient  Kind = "invalid_client"
	InvalidToken   Kind = "invalid_token"
	NotFound       Kind = "not_found"
	BackendError   Kind = "backend_error"
	FormatError    Kind = "format_error"
	Validation     Kind = "validation"
)

// Error is a structured error carrying a Kind for boundary conversion.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
