package coretypes

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers that render errors, such as the
// command layer. Kind values are stable strings.
type Kind string

// Error kinds.
const (
	KindConfiguration Kind = "ConfigurationError"
	KindTransport     Kind = "TransportError"
	KindValidation    Kind = "ValidationError"
	KindDuplicate     Kind = "DuplicateEntity"
	KindNotFound      Kind = "NotFound"
	KindStore         Kind = "StoreError"
	KindInternal      Kind = "Internal"
)

var (
	// ErrNotConfigured is returned by providers that lack required
	// connection information or whose backend cannot be reached.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrNotFound is returned when a lookup target does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate matches any id collision.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrValidation matches any input or payload validation failure.
	ErrValidation = errors.New("validation failed")
)

// DuplicateAppError is returned when an app id is registered twice.
type DuplicateAppError struct {
	ID string
}

func (e *DuplicateAppError) Error() string {
	return fmt.Sprintf("app '%s' already registered", e.ID)
}

// Is makes errors.Is(err, ErrDuplicate) hold.
func (e *DuplicateAppError) Is(target error) bool {
	return target == ErrDuplicate
}

// RequestFailedError reports a backend call that did not complete.
type RequestFailedError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("%s: request failed: %s", e.Provider, e.Reason)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// InvalidResponseError reports a backend answer that could not be parsed or
// validated against the expected shape.
type InvalidResponseError struct {
	Provider string
	Reason   string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("%s: invalid response: %s", e.Provider, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *InvalidResponseError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps a persistence failure with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// KindOf classifies err. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var requestFailed *RequestFailedError
	var storeErr *StoreError

	switch {
	case errors.Is(err, ErrNotConfigured):
		return KindConfiguration
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.As(err, &requestFailed):
		return KindTransport
	case errors.As(err, &storeErr):
		return KindStore
	default:
		return KindInternal
	}
}
