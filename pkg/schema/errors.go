package schema

import (
	"fmt"
	"net/http"

	"github.com/aretw0/blockloom/pkg/domain"
)

// ValidationError represents a single malformed field in a wire object.
type ValidationError struct {
	Key    string // Field name
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %v)", e.Key, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}

// Error is the wire error envelope.
type Error struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var wireCodes = map[domain.ErrorCode]struct {
	code   string
	status int
}{
	domain.CodeRateLimit:    {"rate_limited", http.StatusTooManyRequests},
	domain.CodeConflict:     {"conflict_error", http.StatusConflict},
	domain.CodeInternal:     {"internal_server_error", http.StatusInternalServerError},
	domain.CodeUnavailable:  {"service_unavailable", http.StatusServiceUnavailable},
	domain.CodeTimeout:      {"gateway_timeout", http.StatusGatewayTimeout},
	domain.CodeInvalidInput: {"validation_error", http.StatusBadRequest},
	domain.CodeUnauthorized: {"unauthorized", http.StatusUnauthorized},
	domain.CodeForbidden:    {"restricted_resource", http.StatusForbidden},
	domain.CodeNotFound:     {"object_not_found", http.StatusNotFound},
}

// WireCode returns the wire code and HTTP status for an ErrorCode.
// Unknown codes map to an internal server error.
func WireCode(code domain.ErrorCode) (string, int) {
	if w, ok := wireCodes[code]; ok {
		return w.code, w.status
	}
	return "internal_server_error", http.StatusInternalServerError
}

// CodeFromWire maps a wire code to an ErrorCode, falling back to the status
// when the code is not recognized.
func CodeFromWire(code string, status int) domain.ErrorCode {
	for c, w := range wireCodes {
		if w.code == code {
			return c
		}
	}
	switch {
	case status == http.StatusTooManyRequests:
		return domain.CodeRateLimit
	case status == http.StatusConflict:
		return domain.CodeConflict
	case status == http.StatusNotFound:
		return domain.CodeNotFound
	case status == http.StatusUnauthorized:
		return domain.CodeUnauthorized
	case status == http.StatusForbidden:
		return domain.CodeForbidden
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway:
		return domain.CodeUnavailable
	case status == http.StatusGatewayTimeout, status == http.StatusRequestTimeout:
		return domain.CodeTimeout
	case status >= 500:
		return domain.CodeInternal
	case status >= 400:
		return domain.CodeInvalidInput
	}
	return domain.CodeUnknown
}

// NewError builds the envelope reported for err. RemoteErrors keep their code;
// limit and structural violations are validation errors; everything else is internal.
func NewError(err error) Error {
	code := domain.CodeOf(err)
	if code == domain.CodeUnknown {
		code = classify(err)
	}
	wire, status := WireCode(code)
	msg := err.Error()
	if re, ok := asRemote(err); ok {
		msg = re.Message
	}
	return Error{Object: "error", Status: status, Code: wire, Message: msg}
}

// RemoteError converts a received envelope into a domain error.
func (e Error) RemoteError(op string) *domain.RemoteError {
	return &domain.RemoteError{
		Op:      op,
		Code:    CodeFromWire(e.Code, e.Status),
		Status:  e.Status,
		Message: e.Message,
	}
}
