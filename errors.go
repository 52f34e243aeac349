package fulcrum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrNoToken         = errors.New("fulcrum: no API token configured")
	ErrNoBaseURL       = errors.New("fulcrum: no base URL configured")
	ErrSessionConsumed = errors.New("fulcrum: download session already consumed")
)

// APIError represents a general Fulcrum API error.
type APIError struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
	RequestID  string `json:"requestId,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("fulcrum: API error %d: %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("fulcrum: API error %d: %s", e.StatusCode, e.Message)
}

// AuthenticationError indicates authentication failure (401/403).
type AuthenticationError struct {
	APIError
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("fulcrum: authentication failed: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *AuthenticationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// NotFoundError indicates the requested resource was not found (404).
type NotFoundError struct {
	APIError
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	if e.ResourceType != "" && e.ResourceID != "" {
		return fmt.Sprintf("fulcrum: %s not found: %s", e.ResourceType, e.ResourceID)
	}
	return fmt.Sprintf("fulcrum: resource not found: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *NotFoundError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// ValidationError indicates invalid request data, either rejected locally
// before any network call or by the server (400).
type ValidationError struct {
	APIError
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("fulcrum: validation error: %s (fields: %v)", e.Message, e.Fields)
	}
	return fmt.Sprintf("fulcrum: validation error: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *ValidationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// RateLimitError indicates the API rate limit was exceeded (429).
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("fulcrum: rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "fulcrum: rate limit exceeded"
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *RateLimitError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// ServerError indicates an internal server error (5xx).
type ServerError struct {
	APIError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("fulcrum: server error %d: %s", e.StatusCode, e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *ServerError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// TransportError indicates a network-level failure (connection reset, DNS,
// timeout). The core never retries; retry policy belongs to the caller.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fulcrum: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AbortError indicates a download was cancelled via DownloadSession.Abort.
// It unwraps to context.Canceled so context-aware callers behave.
type AbortError struct {
	DocumentID string
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("fulcrum: download of document %s aborted", e.DocumentID)
}

func (e *AbortError) Unwrap() error { return context.Canceled }

// SinkError indicates a write failure from a caller-supplied sink during a
// piped download. The original write error is preserved via Unwrap.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("fulcrum: writing to sink: %v", e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// parseError converts an HTTP response into the appropriate error type.
func parseError(statusCode int, body []byte, headers http.Header) error {
	requestID := headers.Get("X-Request-ID")
	base := APIError{
		StatusCode: statusCode,
		RequestID:  requestID,
	}

	// Error bodies come in two shapes: {message: ...} from resource
	// endpoints and {error: ...} from the storage endpoint.
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		base.Message = parsed.Message
		if base.Message == "" {
			base.Message = parsed.Error
		}
		base.Detail = parsed.Detail
	}
	if base.Message == "" {
		// Fallback to raw body if not valid or structured JSON
		base.Message = string(body)
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &AuthenticationError{APIError: base}
	case statusCode == http.StatusNotFound:
		return &NotFoundError{APIError: base}
	case statusCode == http.StatusBadRequest:
		validationErr := &ValidationError{APIError: base}
		// Best-effort parse of field-level validation errors
		var fieldData struct {
			Fields map[string]string `json:"fields"`
		}
		if json.Unmarshal(body, &fieldData) == nil && len(fieldData.Fields) > 0 {
			validationErr.Fields = fieldData.Fields
		}
		return validationErr
	case statusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			APIError:   base,
			RetryAfter: parseRetryAfter(headers.Get("Retry-After")),
		}
	case statusCode >= http.StatusInternalServerError:
		return &ServerError{APIError: base}
	default:
		return &base
	}
}

// parseRetryAfter parses the Retry-After header value.
// It handles both seconds (integer) and HTTP-date formats.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	// Try parsing as seconds first
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try parsing as HTTP-date (RFC 1123)
	if t, err := time.Parse(time.RFC1123, value); err == nil {
		duration := time.Until(t)
		if duration > 0 {
			return duration
		}
	}

	return 0
}
