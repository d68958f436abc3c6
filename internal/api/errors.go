package api

import (
	"encoding/json"
	"fmt"
)

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method string
	Path   string
	Status int
	// Message is the payload's error field, or a generic status message.
	Message string
	// Body is the raw response body when it was valid JSON.
	Body json.RawMessage
	// Payload is set when Body has the {ok:false, error:string} shape.
	Payload *ErrorPayload
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

// TransportError wraps a failure that happened before any HTTP response
// was received: DNS, refused connections, TLS, timeouts, cancellation.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is returned when a 2xx body cannot be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func statusMessage(status int) string {
	return fmt.Sprintf("Request failed with status %d", status)
}

// parseErrorPayload recognizes {ok:false, error:<string>}. Any other shape,
// including ok missing or error not being a string, returns nil.
func parseErrorPayload(body []byte) *ErrorPayload {
	if len(body) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	var ok bool
	if raw, found := fields["ok"]; !found || json.Unmarshal(raw, &ok) != nil || ok {
		return nil
	}
	var msg string
	if raw, found := fields["error"]; !found || json.Unmarshal(raw, &msg) != nil {
		return nil
	}

	payload := &ErrorPayload{OK: false, Error: msg}
	if raw, found := fields["auth_required"]; found {
		_ = json.Unmarshal(raw, &payload.AuthRequired)
	}
	if raw, found := fields["login_url"]; found {
		_ = json.Unmarshal(raw, &payload.LoginURL)
	}
	return payload
}

func newHTTPError(method, path string, status int, body []byte) *HTTPError {
	e := &HTTPError{
		Method:  method,
		Path:    path,
		Status:  status,
		Message: statusMessage(status),
	}
	if json.Valid(body) {
		e.Body = json.RawMessage(body)
	}
	if p := parseErrorPayload(body); p != nil {
		e.Payload = p
		if p.Error != "" {
			e.Message = p.Error
		}
	}
	return e
}
