package onion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// Configuration errors
	ErrInvalidMiddleware      = errors.New("middleware must be a function")
	ErrInvalidMiddlewareStack = errors.New("middleware stack must be a sequence of functions")
	ErrNonError               = errors.New("non-error thrown")

	// Control flow errors
	ErrNextCalledMultipleTimes = errors.New("next() called multiple times")

	// Response errors
	ErrInvalidStatus = errors.New("invalid status code")
	ErrHeadersSent   = errors.New("headers already sent")
	ErrNotWritable   = errors.New("transport is not writable")
)

// HTTPError represents an intentional request failure carrying the status
// code to respond with and whether its message is safe to show to clients.
type HTTPError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Expose  bool           `json:"-"`
	Headers http.Header    `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

// NewHTTPError creates an HTTPError for status. The message defaults to the
// status reason phrase; client errors (4xx) are exposed, server errors are not.
func NewHTTPError(status int, message ...string) HTTPError {
	if StatusText(status) == "" {
		status = http.StatusInternalServerError
	}
	msg := StatusText(status)
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	return HTTPError{
		Status:  status,
		Code:    statusCode(status),
		Message: msg,
		Expose:  status < http.StatusInternalServerError,
	}
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for the error.
func (e HTTPError) StatusCode() int {
	return e.Status
}

// Exposed reports whether the message can be sent to the client.
func (e HTTPError) Exposed() bool {
	return e.Expose
}

// ResponseHeaders returns headers that must be set on the error response.
func (e HTTPError) ResponseHeaders() http.Header {
	return e.Headers
}

// Unwrap returns the underlying cause, if any.
func (e HTTPError) Unwrap() error {
	return e.Err
}

// Is matches any HTTPError with the same status, so errors.Is(err, ErrNotFound)
// holds for customized not-found errors.
func (e HTTPError) Is(target error) bool {
	t, ok := target.(HTTPError)
	return ok && t.Status == e.Status
}

// WithMessage returns a copy of the error with a custom message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithExpose returns a copy of the error with the expose flag set.
func (e HTTPError) WithExpose(expose bool) HTTPError {
	e.Expose = expose
	return e
}

// WithHeader returns a copy of the error with an additional response header.
func (e HTTPError) WithHeader(key, value string) HTTPError {
	h := e.Headers.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Add(key, value)
	e.Headers = h
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	e.Details = details
	return e
}

// WithError returns a copy of the error wrapping err as its cause.
func (e HTTPError) WithError(err error) HTTPError {
	e.Err = err
	return e
}

// Predefined HTTP errors using http.StatusText for default messages.
var (
	ErrBadRequest          = NewHTTPError(http.StatusBadRequest)
	ErrUnauthorized        = NewHTTPError(http.StatusUnauthorized)
	ErrForbidden           = NewHTTPError(http.StatusForbidden)
	ErrNotFound            = NewHTTPError(http.StatusNotFound)
	ErrMethodNotAllowed    = NewHTTPError(http.StatusMethodNotAllowed)
	ErrConflict            = NewHTTPError(http.StatusConflict)
	ErrUnprocessableEntity = NewHTTPError(http.StatusUnprocessableEntity)
	ErrTooManyRequests     = NewHTTPError(http.StatusTooManyRequests)
	ErrInternalServerError = NewHTTPError(http.StatusInternalServerError)
	ErrServiceUnavailable  = NewHTTPError(http.StatusServiceUnavailable)
)

// statusCoder is implemented by errors that choose their response status.
type statusCoder interface {
	StatusCode() int
}

// exposer is implemented by errors whose message is safe for clients.
type exposer interface {
	Exposed() bool
}

// headerer is implemented by errors that carry response headers.
type headerer interface {
	ResponseHeaders() http.Header
}

// PanicError wraps a value recovered from a panicking middleware.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

type panicError struct {
	value any
	err   error
	stack []byte
}

func (e *panicError) Error() string {
	return e.err.Error()
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

func (e *panicError) Unwrap() error {
	return e.err
}

// toError converts a recovered panic value into an error.
// Values that are not errors, strings included, are described with their
// JSON form.
func toError(v any) error {
	if e, ok := v.(error); ok {
		return e
	}
	if b, err := json.Marshal(v); err == nil {
		return fmt.Errorf("%w: %s", ErrNonError, b)
	}
	return fmt.Errorf("%w: %#v", ErrNonError, v)
}
