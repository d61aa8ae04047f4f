package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can pick a status code and a safe message.
type Kind string

const (
	KindConfiguration        Kind = "configuration_error"
	KindValidation           Kind = "validation_error"
	KindEmbeddingUnavailable Kind = "embedding_unavailable"
	KindUpstreamLLM          Kind = "upstream_llm_error"
	KindEmptyResponse        Kind = "empty_response"
	KindTimeout              Kind = "timeout"
	KindInternal             Kind = "internal_error"
)

// Error is a failure tagged with a Kind.
type Error struct {
	Kind    Kind
	Message string
	// UpstreamStatus is the HTTP status returned by an external service, if any.
	UpstreamStatus int
	Err            error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.UpstreamStatus != 0 {
		msg += fmt.Sprintf(" (upstream status %d)", e.UpstreamStatus)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind around err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Upstream creates an UpstreamLLM error carrying the upstream HTTP status.
func Upstream(status int, message string, err error) *Error {
	return &Error{Kind: KindUpstreamLLM, Message: message, UpstreamStatus: status, Err: err}
}

// Configuration is shorthand for a configuration error.
func Configuration(format string, args ...any) *Error {
	return New(KindConfiguration, fmt.Sprintf(format, args...))
}

// Validation is shorthand for a validation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UpstreamStatusOf returns the upstream HTTP status recorded in err, or 0.
func UpstreamStatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.UpstreamStatus
	}
	return 0
}

// HTTPStatus maps a Kind to the status code returned to callers.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindEmbeddingUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the caller-facing text for a Kind. It never includes
// internal details.
func PublicMessage(kind Kind) string {
	switch kind {
	case KindConfiguration:
		return "The service is not configured correctly."
	case KindEmbeddingUnavailable:
		return "The search service is temporarily unavailable. Please try again later."
	case KindUpstreamLLM:
		return "The answer service failed to respond."
	case KindEmptyResponse:
		return "The answer service returned an empty response. Please try again."
	case KindTimeout:
		return "The request took too long to process. Please try again."
	default:
		return "An internal error occurred."
	}
}
