package model

import (
	"errors"
	"fmt"
	"time"
)

// Error classes. Wrapped errors are classified with errors.Is.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrEmptyUpstream       = errors.New("no listings in provider response")
	ErrNoMatchingRecords   = errors.New("no jobs found with the provided filters")
	ErrMalformedCriteria   = errors.New("invalid query parameters")
	ErrPersistence         = errors.New("persistence failure")
	ErrImportInProgress    = errors.New("import already in progress")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
