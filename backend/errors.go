package backend

import (
	"errors"
	"fmt"
)

// ProviderError represents an error from a provider operation.
// It provides structured error information including HTTP status codes,
// operation context, and the underlying error message.
type ProviderError struct {
	Operation  string // e.g., "Login", "FullSyncDown", "DeltaSync"
	StatusCode int    // HTTP status code (0 if not an HTTP error)
	Message    string // Human-readable error message
	Body       string // Optional: response body for debugging
	Transient  bool   // True for connectivity failures worth retrying
	Err        error  // Optional: underlying error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed with status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error for error wrapping
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsUnauthorized returns true if the error is a 401 Unauthorized or 403 Forbidden
func (e *ProviderError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsConnectivity returns true if the failure is transient: a network error
// or a 5xx server error. Callers should leave pending changes queued and
// retry on the next trigger.
func (e *ProviderError) IsConnectivity() bool {
	return e.Transient || (e.StatusCode >= 500 && e.StatusCode < 600)
}

// NewProviderError creates a new ProviderError
func NewProviderError(operation string, statusCode int, message string) *ProviderError {
	return &ProviderError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewConnectivityError creates a ProviderError for a failed network call
func NewConnectivityError(operation string, err error) *ProviderError {
	return &ProviderError{
		Operation: operation,
		Message:   err.Error(),
		Transient: true,
		Err:       err,
	}
}

// WithBody adds the response body to the error for debugging
func (e *ProviderError) WithBody(body string) *ProviderError {
	e.Body = body
	return e
}

// WithError wraps an underlying error
func (e *ProviderError) WithError(err error) *ProviderError {
	e.Err = err
	return e
}

// IsUnauthorized reports whether err is a provider authorization failure.
func IsUnauthorized(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.IsUnauthorized()
}

// IsConnectivity reports whether err is a transient provider failure.
func IsConnectivity(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.IsConnectivity()
}
