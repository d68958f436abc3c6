package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rileyhilliard/aidash/internal/api"
)

// Error codes for categorizing errors
const (
	ErrConfig  = "CONFIG"
	ErrAuth    = "AUTH"
	ErrAPI     = "API"
	ErrNetwork = "NETWORK"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrAPI code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrAPI,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// FromRequestError turns a failed backend request into a user-facing error.
// what names the operation, e.g. "Couldn't load servers". Returns nil when
// err is nil or a cancellation.
func FromRequestError(err error, what string) error {
	n := api.Classify(err)
	if n == nil {
		return nil
	}

	switch n.Kind {
	case api.KindAuth:
		suggestion := "Run 'aidash login' to sign in"
		if n.LoginURL != "" {
			suggestion = fmt.Sprintf("Run 'aidash login' or sign in at %s", n.LoginURL)
		}
		return WrapWithCode(n, ErrAuth, what, suggestion)
	case api.KindForbidden:
		return WrapWithCode(n, ErrAuth, what, "Your account doesn't have access to this dashboard")
	case api.KindNetwork:
		return WrapWithCode(n, ErrNetwork, what, "Check that the backend is running and api.url is correct")
	case api.KindNotFound:
		return WrapWithCode(n, ErrAPI, what, "Run 'aidash servers' to list registered servers")
	default:
		return WrapWithCode(n, ErrAPI, what, "")
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var aErr *Error
	if errors.As(err, &aErr) {
		return aErr.Code == code
	}
	return false
}
