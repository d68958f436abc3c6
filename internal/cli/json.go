package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/errors"
)

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeAuthRequired   = "AUTH_REQUIRED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeNetwork        = "NETWORK_ERROR"
	ErrCodeHTTP           = "HTTP_ERROR"
	ErrCodeUnknown        = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: true,
		Data:    data,
	})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{
		Success: false,
		Error:   ErrorToJSON(err),
	})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
// Request failures keep their classified kind in the details.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	out := &JSONError{Code: ErrCodeUnknown, Message: err.Error()}

	var cliErr *errors.Error
	if stderrors.As(err, &cliErr) {
		out.Message = cliErr.Message
		out.Suggestion = cliErr.Suggestion
		out.Code = mapErrorCode(cliErr.Code, cliErr.Message)
	}

	if n := api.Classify(err); n != nil && n.Kind != api.KindUnknown {
		out.Code = kindCode(n.Kind)
		details := map[string]interface{}{
			"kind":   string(n.Kind),
			"reason": n.Message,
		}
		if n.Status != 0 {
			details["status"] = n.Status
		}
		if n.LoginURL != "" {
			details["login_url"] = n.LoginURL
		}
		out.Details = details
	}

	return out
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	switch internalCode {
	case errors.ErrConfig:
		if strings.Contains(strings.ToLower(message), "not found") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrAuth:
		return ErrCodeAuthRequired
	case errors.ErrNetwork:
		return ErrCodeNetwork
	case errors.ErrAPI:
		return ErrCodeHTTP
	}
	return ErrCodeUnknown
}

func kindCode(kind api.ErrorKind) string {
	switch kind {
	case api.KindAuth:
		return ErrCodeAuthRequired
	case api.KindForbidden:
		return ErrCodeForbidden
	case api.KindNotFound:
		return ErrCodeNotFound
	case api.KindNetwork:
		return ErrCodeNetwork
	case api.KindHTTP:
		return ErrCodeHTTP
	}
	return ErrCodeUnknown
}

// emit writes a command result. With asJSON set, failures are reported in
// the envelope and the returned error is errSilent so Execute only sets
// the exit code.
func emit(w io.Writer, asJSON bool, data interface{}, err error, human func() error) error {
	if !asJSON {
		if err != nil {
			return err
		}
		return human()
	}
	if err != nil {
		if werr := WriteJSONFromError(w, err); werr != nil {
			return werr
		}
		return errSilent
	}
	return WriteJSONSuccess(w, data)
}

// errSilent signals failure without printing anything more.
var errSilent = &silentError{}

type silentError struct{}

func (*silentError) Error() string { return "" }
