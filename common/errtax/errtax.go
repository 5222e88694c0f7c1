// Package errtax implements the error taxonomy, adapted from
// common/utils/ErrorHandling.go's IAROSError/ErrorType shape.
package errtax

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Code is one of the taxonomy entries.
type Code string

const (
	ValidationError      Code = "VALIDATION_ERROR"
	ProductNotFound      Code = "PRODUCT_NOT_FOUND"
	QueryProcessingError Code = "QUERY_PROCESSING_ERROR"
	InvalidQueryError    Code = "INVALID_QUERY_ERROR"
	DatabaseError        Code = "DATABASE_ERROR"
	ConfigurationError   Code = "CONFIGURATION_ERROR"
	RateLimitError       Code = "RATE_LIMIT_ERROR"
	RequestTooLarge      Code = "REQUEST_TOO_LARGE"
	UnsupportedMediaType Code = "UNSUPPORTED_MEDIA_TYPE"
)

// httpStatus maps each taxonomy code to the HTTP status assigns.
var httpStatus = map[Code]int{
	ValidationError:      http.StatusBadRequest,
	ProductNotFound:      http.StatusNotFound,
	QueryProcessingError: http.StatusInternalServerError,
	InvalidQueryError:    http.StatusBadRequest,
	DatabaseError:        http.StatusServiceUnavailable,
	ConfigurationError:   http.StatusInternalServerError,
	RateLimitError:       http.StatusTooManyRequests,
	RequestTooLarge:      http.StatusRequestEntityTooLarge,
	UnsupportedMediaType: http.StatusUnsupportedMediaType,
}

// retryable marks which taxonomy entries a caller may sensibly retry.
var retryable = map[Code]bool{
	DatabaseError:  true,
	RateLimitError: true,
}

// Error is the typed error every core component returns; it never crosses a
// package boundary as a bare error once it has a taxonomy code.
type Error struct {
	ID          string    `json:"error_id"`
	Code        Code      `json:"code"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	RetryAfter  *time.Duration `json:"-"`
	cause       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus returns the status code for this error's taxonomy entry.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Retryable reports whether the taxonomy entry is meant to be retried by a
// higher layer (never by the error's own component — 's
// propagation policy keeps retry decisions one layer up).
func (e *Error) Retryable() bool { return retryable[e.Code] }

// New builds a taxonomy error with a fresh error id and timestamp.
func New(code Code, message string, suggestions ...string) *Error {
	return &Error{
		ID:          uuid.NewString(),
		Code:        code,
		Message:     message,
		Suggestions: suggestions,
		Timestamp:   time.Now().UTC(),
	}
}

// Wrap attaches a taxonomy code to an underlying error, preserving it for
// Unwrap/errors.Is chains.
func Wrap(code Code, message string, cause error, suggestions ...string) *Error {
	e := New(code, message, suggestions...)
	e.cause = cause
	return e
}

// WithRequestID returns a copy of e carrying the given request id.
func (e *Error) WithRequestID(id string) *Error {
	cp := *e
	cp.RequestID = id
	return &cp
}

// Envelope is the wire shape of this service's error response.
type Envelope struct {
	Error EnvelopeBody `json:"error"`
}

type EnvelopeBody struct {
	Code        Code      `json:"code"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id"`
}

// ToEnvelope renders e into the documented error envelope.
func (e *Error) ToEnvelope() Envelope {
	suggestions := e.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return Envelope{Error: EnvelopeBody{
		Code:        e.Code,
		Message:     e.Message,
		Suggestions: suggestions,
		Timestamp:   e.Timestamp,
		RequestID:   e.RequestID,
	}}
}

// FromError converts any error into a taxonomy error, defaulting unexpected
// errors to QueryProcessingError with a generic message — 's
// propagation policy for "unexpected exceptions."
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if te, ok := err.(*Error); ok {
		return te
	}
	return Wrap(QueryProcessingError, "an unexpected error occurred while processing the query", err)
}
