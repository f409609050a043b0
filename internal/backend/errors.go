package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an update or delete matched no record.
	ErrNotFound = errors.New("grant not found")
	// ErrInvalidRecord is returned for records or filters the backend cannot accept.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrMalformedPayload is returned when a backend response cannot be decoded.
	ErrMalformedPayload = errors.New("malformed backend payload")
	// ErrNotConfigured is returned when the backend URL is missing.
	ErrNotConfigured = errors.New("backend not configured")
)

// StatusError is a non-2xx response from the REST backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}
