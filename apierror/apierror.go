package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindMethodNotAllowed
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindTooManyRequests:
		return "TooManyRequests"
	case KindMethodNotAllowed:
		return "MethodNotAllowed"
	default:
		return "InternalError"
	}
}

// Status is the HTTP status for k. Conflicts are reported as 400 to match
// the other input errors on registration and profile updates.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

type APIError struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
	Stack   []byte
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Status() int { return e.Kind.Status() }

func Validation(fields ...FieldError) *APIError {
	return &APIError{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

func Unauthenticated(message string) *APIError {
	return &APIError{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *APIError {
	return &APIError{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *APIError {
	return &APIError{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *APIError {
	return &APIError{Kind: KindConflict, Message: message}
}

func TooManyRequests(message string) *APIError {
	return &APIError{Kind: KindTooManyRequests, Message: message}
}

func MethodNotAllowed(message string) *APIError {
	return &APIError{Kind: KindMethodNotAllowed, Message: message}
}

// Internal wraps err and records the current stack.
func Internal(err error) *APIError {
	return &APIError{Kind: KindInternal, Message: "Internal server error", Err: err, Stack: debug.Stack()}
}

// From returns err as an *APIError, wrapping anything unrecognised as internal.
func From(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == k
}
