package asfpage

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnavailable = errors.New("listing: host unreachable or transport failure")
	ErrStatus      = errors.New("listing: unexpected HTTP status")
	ErrTooLarge    = errors.New("listing: response exceeds size limit")
	ErrTimeout     = errors.New("listing: request timed out")
	ErrNoIssues    = errors.New("listing: no issue headings found")
)

// PageError is a rich error type that wraps the sentinel errors with context.
type PageError struct {
	Sentinel  error
	Operation string
	URL       string
	Status    int
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *PageError) Error() string {
	msg := fmt.Sprintf("asfpage: %s: %v", e.Operation, e.Sentinel)
	if e.URL != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.URL)
	}
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *PageError) Unwrap() error {
	return e.Sentinel
}
