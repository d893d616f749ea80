package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnauthorized       Kind = "unauthorized"
	KindNotFound           Kind = "not_found"
	KindPreconditionFailed Kind = "precondition_failed"
	KindGenerationFailed   Kind = "generation_failed"
	KindValidation         Kind = "validation_failed"
	KindPersistenceFailed  Kind = "persistence_failed"
)

// Error is the only error shape that crosses the service boundary. Message is
// safe to show to callers; Err keeps the internal cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind onto an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case KindGenerationFailed:
		return http.StatusBadGateway
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthorized() *Error {
	return New(KindUnauthorized, "Unauthorized", nil)
}

func NotFound(what string) *Error {
	return New(KindNotFound, what+" not found", nil)
}

func PreconditionFailed(message string) *Error {
	return New(KindPreconditionFailed, message, nil)
}

func GenerationFailed(message string, err error) *Error {
	return New(KindGenerationFailed, message, err)
}

func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

func Persistence(message string, err error) *Error {
	return New(KindPersistenceFailed, message, err)
}

// KindOf reports the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
