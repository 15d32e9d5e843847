package models

import (
	"fmt"
	"strings"
)

// Sync error codes surfaced by Synchronize when no fallback data exists.
const (
	SyncCodeNoFinancialData = "NO_FINANCIAL_DATA"
	SyncCodeNoLoanData      = "NO_LOAN_DATA"
)

// ErrorDetail carries the technical payload of a failed remote call so a UI
// can show it separately from the user-facing message.
type ErrorDetail struct {
	StatusCode int    `json:"status_code,omitempty"`
	URL        string `json:"url,omitempty"`
	Body       string `json:"body,omitempty"`
}

// NotFoundError signals an entity the backend has no record of. For the
// financial profile this is a valid state, not a failure.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// ValidationError is raised before any network call when caller input is
// missing or malformed.
type ValidationError struct {
	MissingFields []string
	Reason        string
}

func (e *ValidationError) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", "))
	}
	return e.Reason
}

// UserMessage returns caller-renderable copy for the validation failure.
func (e *ValidationError) UserMessage() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("Please provide: %s", strings.Join(e.MissingFields, ", "))
	}
	return e.Reason
}

// NetworkError wraps a transport failure where no response was received.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UserMessage returns caller-renderable copy for the network failure.
func (e *NetworkError) UserMessage() string {
	return "Unable to reach the server. Please check your connection and try again."
}

// ServerError wraps a 5xx response.
type ServerError struct {
	Detail ErrorDetail
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d from %s", e.Detail.StatusCode, e.Detail.URL)
}

// UserMessage returns caller-renderable copy for the server failure.
func (e *ServerError) UserMessage() string {
	return "The server encountered a problem. Please try again in a moment."
}

// AuthError wraps a 401 response or a locally expired session token.
// Callers must treat it as session expiry and force re-authentication.
type AuthError struct {
	Detail ErrorDetail
}

func (e *AuthError) Error() string {
	if e.Detail.URL != "" {
		return fmt.Sprintf("authentication failed for %s", e.Detail.URL)
	}
	return "session expired"
}

// UserMessage returns caller-renderable copy for the auth failure.
func (e *AuthError) UserMessage() string {
	return "Your session has expired. Please log in again."
}

// SyncError is raised by Synchronize only after every cache fallback is
// exhausted. Code is machine-readable; Message is written for end users.
type SyncError struct {
	Code    string
	Message string
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed (%s): %s", e.Code, e.Message)
}

func (e *SyncError) Unwrap() error { return e.Err }

// UserMessage returns caller-renderable copy for the sync failure.
func (e *SyncError) UserMessage() string { return e.Message }
