package domain

import (
	"errors"
	"fmt"
)

// TransientError wraps a fetch failure that is worth retrying: network
// timeouts, 5xx responses, rate-limit signals.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// AuthError is fatal: expired or invalid credentials. Never retried.
type AuthError struct {
	Platform Platform
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth: %v", e.Platform, e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }

// IsAuth reports whether err is a credential failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// MalformedItemError marks a single raw item that failed normalization. The
// item is skipped and counted; the page continues.
type MalformedItemError struct {
	Reason string
}

func (e *MalformedItemError) Error() string { return "malformed item: " + e.Reason }
