// Package result implements the uniform success/failure envelope returned by
// every call into an external service.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a failure.
type ErrorKind string

const (
	// Network covers transport failures and non-2xx responses.
	Network ErrorKind = "NETWORK"
	// Validation covers missing configuration, malformed payloads and bad input.
	Validation ErrorKind = "VALIDATION"
	// BusinessLogic covers composite operations that failed for domain reasons.
	BusinessLogic ErrorKind = "BUSINESS_LOGIC"
)

// Result is either {success: true, data} or {success: false, error, errorType, cause}.
type Result[T any] struct {
	Success   bool
	Data      T
	Error     string
	ErrorType ErrorKind
	Cause     error
}

type successJSON[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type failureJSON struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	ErrorType ErrorKind `json:"errorType"`
}

// MarshalJSON writes only the keys belonging to the active variant. The cause
// never leaves the process.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(successJSON[T]{Success: true, Data: r.Data})
	}
	return json.Marshal(failureJSON{Error: r.Error, ErrorType: r.ErrorType})
}

// UnmarshalJSON accepts either variant.
func (r *Result[T]) UnmarshalJSON(b []byte) error {
	var raw struct {
		Success   bool            `json:"success"`
		Data      json.RawMessage `json:"data"`
		Error     string          `json:"error"`
		ErrorType ErrorKind       `json:"errorType"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Result[T]{Success: raw.Success, Error: raw.Error, ErrorType: raw.ErrorType}
	if raw.Success && len(raw.Data) > 0 {
		return json.Unmarshal(raw.Data, &r.Data)
	}
	return nil
}

// Success wraps data in a successful result.
func Success[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Failure builds a failed result. cause may be nil.
func Failure[T any](message string, kind ErrorKind, cause error) Result[T] {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return Result[T]{Error: message, ErrorType: kind, Cause: cause}
}

// FailureFrom re-types a failed result without touching its message, kind or cause.
func FailureFrom[T, U any](r Result[U]) Result[T] {
	return Result[T]{Error: r.Error, ErrorType: r.ErrorType, Cause: r.Cause}
}

// Err returns nil for a successful result and an error carrying the message
// and kind otherwise. The cause stays reachable through errors.Unwrap.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Message: r.Error, Kind: r.ErrorType, Cause: r.Cause}
}

// Error is the error form of a failed Result.
type Error struct {
	Message string
	Kind    ErrorKind
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf reports the ErrorKind carried by err, or "" if err is not a result error.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
