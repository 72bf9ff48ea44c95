package riskservice

import "fmt"

// ExternalServiceError represents a risk-service call that failed or
// timed out. It is recoverable: the caller proceeds without the
// enrichment or score.
type ExternalServiceError struct {
	// Endpoint is the service path that was called.
	Endpoint string

	// StatusCode is the HTTP status code (0 if the request never
	// completed).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *ExternalServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("risk service %s error (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("risk service %s error: %s", e.Endpoint, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ExternalServiceError) Unwrap() error {
	return e.Cause
}
