package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrStateConflict     = errors.New("state conflict")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrTransport         = errors.New("transport error")
	ErrNotFound          = errors.New("not found")
)

// RateLimitError is a compliance denial. Reason is shown to the operator verbatim.
type RateLimitError struct {
	Rule   string
	Reason string
}

func (e *RateLimitError) Error() string { return e.Reason }

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimitExceeded }

// TransportError wraps a failed call to a collaborator. The action can be retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}
