package domain

import (
	"errors"
	"fmt"
)

// Session errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrOperationStale   = errors.New("operation superseded by a newer one")
)

// Storage errors
var (
	ErrRecordNotFound = errors.New("record not found")
)

// NetworkError means the backend was unreachable: no HTTP response was
// received at all. Retryable.
type NetworkError struct {
	BaseURL string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: cannot connect to server at %s: %v", e.BaseURL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a structured rejection from the backend. The optional
// fields are propagated verbatim from the error body so callers can
// branch on them instead of parsing the message.
type APIError struct {
	StatusCode        int    `json:"-"`
	Message           string `json:"message"`
	NeedsVerification bool   `json:"needsVerification,omitempty"`
	NeedsRegistration bool   `json:"needsRegistration,omitempty"`
	CanResend         bool   `json:"canResend,omitempty"`
	Email             string `json:"email,omitempty"`
	AttemptsRemaining *int   `json:"attemptsRemaining,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// MalformedResponseError means the backend answered with a body that is
// not valid JSON. Treated as a server-side bug.
type MalformedResponseError struct {
	StatusCode int
	Snippet    string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response (status %d): %v: %q", e.StatusCode, e.Err, e.Snippet)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// StorageWriteError means local persistence failed. An operation that
// hits this must not report the session as established, since it would
// not survive a restart.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write failed for %s: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// AsAPIError unwraps err to an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkError reports whether err was caused by an unreachable backend.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
