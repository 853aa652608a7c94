package client

import (
	"fmt"
	"strings"
)

// APIError represents failures when communicating with the downstream
// resolution service. Transport failures, error responses, and bad payloads
// all surface as this one type; the message carries the diagnostics.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func apiErrorf(format string, args ...interface{}) *APIError {
	return &APIError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError is returned when a caller-supplied argument is empty or
// all-whitespace. It is raised before any network activity.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s must be a non-empty string.", e.Field)
}

// RequireNonEmpty trims value and rejects it if nothing remains.
func RequireNonEmpty(value, field string) (string, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return "", &ValidationError{Field: field}
	}
	return cleaned, nil
}
