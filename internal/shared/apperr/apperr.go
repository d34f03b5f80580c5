// Package apperr holds the error taxonomy shared by services and handlers.
// Services wrap one of the sentinels with a human readable detail; handlers
// map the sentinel to an HTTP status with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
)

// Error carries a caller-facing detail on top of a sentinel kind.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds "<entity> not found". Absent rows and rows owned by another
// workspace produce the same error.
func NotFound(entity string) error {
	return &Error{Kind: ErrNotFound, Detail: entity + " not found"}
}

func BadRequest(format string, args ...interface{}) error {
	return &Error{Kind: ErrBadRequest, Detail: fmt.Sprintf(format, args...)}
}

func Unauthorized(detail string) error {
	return &Error{Kind: ErrUnauthorized, Detail: detail}
}

func Forbidden(detail string) error {
	return &Error{Kind: ErrForbidden, Detail: detail}
}

func Conflict(detail string) error {
	return &Error{Kind: ErrConflict, Detail: detail}
}

// Upstream wraps a failure of an external collaborator.
func Upstream(service string, err error) error {
	return &Error{Kind: ErrUpstream, Detail: fmt.Sprintf("%s error: %v", service, err), Err: err}
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
