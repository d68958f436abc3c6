package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
)

// ErrorKind is the closed set of failure categories the rest of the
// application branches on.
type ErrorKind string

// Error kinds.
const (
	KindAuth      ErrorKind = "auth"
	KindForbidden ErrorKind = "forbidden"
	KindNotFound  ErrorKind = "not_found"
	KindNetwork   ErrorKind = "network"
	KindHTTP      ErrorKind = "http"
	KindUnknown   ErrorKind = "unknown"
)

// User-facing messages for failures without a structured payload.
const (
	MsgAuthRequired = "Authentication required."
	MsgAccessDenied = "Access denied."
	MsgNetwork      = "Network error. Verify the backend is running and reachable."
	MsgTimeout      = "Request timed out."
	MsgUnexpected   = "Unexpected error."
)

// NormalizedError is a classified request failure.
type NormalizedError struct {
	Kind     ErrorKind       `json:"kind"`
	Message  string          `json:"message"`
	Status   int             `json:"status,omitempty"`
	LoginURL string          `json:"login_url,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Cause    error           `json:"-"`
}

func (e *NormalizedError) Error() string {
	return e.Message
}

func (e *NormalizedError) Unwrap() error { return e.Cause }

// IsKind reports whether the error is of the given kind.
func (e *NormalizedError) IsKind(kind ErrorKind) bool {
	return e != nil && e.Kind == kind
}

// IsCanceled reports whether err is a cooperative cancellation. Deadline
// expiry is not cancellation: a timed-out request is a network failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Classify maps a request failure to a NormalizedError. It returns nil for
// nil errors and for cancellations, which callers must discard silently.
func Classify(err error) *NormalizedError {
	if err == nil || IsCanceled(err) {
		return nil
	}

	var already *NormalizedError
	if errors.As(err, &already) {
		return already
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return classifyHTTP(httpErr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &NormalizedError{Kind: KindNetwork, Message: MsgTimeout, Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &NormalizedError{Kind: KindNetwork, Message: MsgTimeout, Cause: err}
	}

	var transportErr *TransportError
	var urlErr *url.Error
	if errors.As(err, &transportErr) || errors.As(err, &urlErr) || netErr != nil {
		return &NormalizedError{Kind: KindNetwork, Message: MsgNetwork, Cause: err}
	}

	msg := err.Error()
	if msg == "" {
		msg = MsgUnexpected
	}
	return &NormalizedError{Kind: KindUnknown, Message: msg, Cause: err}
}

func classifyHTTP(e *HTTPError) *NormalizedError {
	n := &NormalizedError{
		Status:  e.Status,
		Message: e.Message,
		Data:    e.Body,
		Cause:   e,
	}
	p := e.Payload

	switch {
	case e.Status == 401:
		n.Kind = KindAuth
		if p == nil || p.Error == "" {
			n.Message = MsgAuthRequired
		}
		if p != nil {
			n.LoginURL = p.LoginURL
		}
	case e.Status == 403:
		n.Kind = KindForbidden
		if p == nil || p.Error == "" {
			n.Message = MsgAccessDenied
		}
	case e.Status == 404:
		n.Kind = KindNotFound
	case p != nil && p.AuthRequired:
		n.Kind = KindAuth
		n.LoginURL = p.LoginURL
	default:
		n.Kind = KindHTTP
	}
	return n
}

// AsNotFoundPayload interprets a not_found error's data as the structured
// "no snapshot yet" payload. It returns nil when the error is not a
// not_found or the body lacks the {ok:false, error:string} shape.
func AsNotFoundPayload(n *NormalizedError) *NotFoundPayload {
	if n == nil || n.Kind != KindNotFound || len(n.Data) == 0 {
		return nil
	}
	if parseErrorPayload(n.Data) == nil {
		return nil
	}
	var p NotFoundPayload
	if err := json.Unmarshal(n.Data, &p); err != nil {
		return nil
	}
	return &p
}
