package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a pipeline failure so handlers can map it to an HTTP
// status without parsing message strings.
type ErrorKind string

const (
	// ErrUnavailable means a required model artifact or library is missing
	// or failed to load.
	ErrUnavailable ErrorKind = "unavailable"

	// ErrInvalidInput means the client sent something malformed: a bad color
	// string, a corrupt image, an oversized upload.
	ErrInvalidInput ErrorKind = "invalid_input"

	// ErrUpstream means a remote API returned a non-recoverable failure.
	ErrUpstream ErrorKind = "upstream"

	// ErrInternal covers everything else.
	ErrInternal ErrorKind = "internal"
)

// PipelineError is the single error type crossing a pipeline boundary.
type PipelineError struct {
	Kind    ErrorKind
	Message string

	status int
	cause  error
}

func NewError(kind ErrorKind, message string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message}
}

func Errorf(kind ErrorKind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *PipelineError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.cause
}

func (e *PipelineError) WithCause(err error) *PipelineError {
	e.cause = err
	return e
}

// WithStatus overrides the status derived from the kind, e.g. 413 for an
// oversized upload.
func (e *PipelineError) WithStatus(status int) *PipelineError {
	e.status = status
	return e
}

func (e *PipelineError) HTTPStatus() int {
	if e.status != 0 {
		return e.status
	}

	switch e.Kind {
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrUpstream, ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// KindOf extracts the kind from any error, defaulting to ErrInternal.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrInternal
}

// HTTPStatusOf maps any error to a response status.
func HTTPStatusOf(err error) int {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.HTTPStatus()
	}
	return http.StatusInternalServerError
}
