package n8n

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned by API operations when N8N_API_KEY is empty.
	ErrMissingAPIKey = errors.New("n8n API key not configured")
	// ErrNotConfigured is returned when the webhook or base URL is empty.
	ErrNotConfigured = errors.New("n8n endpoint not configured")
	// ErrRejected is returned when n8n accepted a request but reported a failure in its body.
	ErrRejected = errors.New("n8n rejected the request")
)

// StatusError is a non-2xx response from n8n.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("n8n %s %s: status %d", e.Method, e.Path, e.Code)
}

// ErrInvalidInput is returned for calls missing a required argument.
var ErrInvalidInput = errors.New("invalid n8n request")
