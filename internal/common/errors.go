// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInvalidInput   = errors.New("invalid input")

	// Tenant errors.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnknownTenant = errors.New("unknown tenant")

	// Feed errors.
	ErrPlaidConnection = errors.New("plaid connection failed")
	ErrPlaidRateLimit  = errors.New("plaid rate limit exceeded")

	// Classification errors.
	ErrModelUnavailable = errors.New("local model unavailable")
	ErrBadResponse      = errors.New("unparseable reasoning response")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError carries a message meant for the person at the terminal or the
// API caller, alongside the underlying cause.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.UserMessage
	}
	return e.UserMessage + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error { return e.Err }

// NewUserError wraps err with a message for the user.
func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}

// IsRetryable reports whether err is worth another attempt: throttling,
// timeouts, or a RetryableError that says so.
func IsRetryable(err error) bool {
	var re *RetryableError
	switch {
	case errors.As(err, &re):
		return re.Retryable
	case errors.Is(err, ErrRateLimit), errors.Is(err, ErrPlaidRateLimit), errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}
