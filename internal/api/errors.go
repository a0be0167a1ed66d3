package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mobil-koeln/sunmap/internal/models"
)

// Common errors
var (
	// ErrNetwork indicates a transport-level failure (DNS, connect, reset, read)
	ErrNetwork = errors.New("network failure")

	// ErrUpstream indicates the upstream answered with a non-success status
	// or a payload that could not be used
	ErrUpstream = errors.New("upstream error")

	// ErrCancelled indicates the request was abandoned because its selection was superseded
	ErrCancelled = errors.New("request cancelled")

	// ErrTimeout indicates the request ran out of time
	ErrTimeout = errors.New("request timed out")

	// ErrInvalidPayload indicates a 2xx response whose body is not JSON
	ErrInvalidPayload = fmt.Errorf("%w: invalid JSON payload", ErrUpstream)

	// ErrServerError indicates the upstream answered with a 5xx status
	ErrServerError = errors.New("server error")
)

// APIError represents a non-success HTTP answer from an upstream endpoint.
// Message carries the upstream's own explanation when the body has one.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error %d: %s (endpoint: %s)", e.StatusCode, e.Status, e.Endpoint)
}

// Class returns the status classification of the error.
func (e *APIError) Class() models.StatusClass {
	return models.ClassifyStatus(e.StatusCode)
}

// Is implements errors.Is for APIError
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrServerError:
		return e.StatusCode >= 500
	}
	return false
}

// NewAPIError creates a new API error
func NewAPIError(statusCode int, status, endpoint string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Status:     status,
		Endpoint:   endpoint,
	}
}

// upstreamMessage extracts the explanation both upstreams put in error
// bodies: Google's error_message, or the bare status of sunrise-sunset.org.
func upstreamMessage(body []byte) string {
	var payload struct {
		ErrorMessage string `json:"error_message"`
		Status       string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.ErrorMessage != "" {
		return payload.ErrorMessage
	}
	return payload.Status
}

// ValidationError represents a validation error for request parameters
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Common validation errors
func ErrMissingField(field string) error {
	return NewValidationError(field, "field is required")
}

func ErrInvalidValue(field string, value interface{}) error {
	return NewValidationError(field, fmt.Sprintf("invalid value: %v", value))
}

// IsCancelled reports whether err stems from a superseded selection.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
