// Package errs holds the error kinds shared by every core operation.
// Handlers map them to HTTP statuses; services wrap them with detail.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidState     = errors.New("invalid state")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrExpired          = errors.New("expired")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrTerminalState    = errors.New("terminal state")
	ErrNotDelivered     = errors.New("not delivered")
	ErrInsufficientData = errors.New("insufficient data")
)

// Error carries a kind plus a caller-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

// New wraps kind with a formatted message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return New(ErrValidation, format, args...)
}

type mapping struct {
	kind   error
	status int
	code   string
}

var mappings = []mapping{
	{ErrValidation, http.StatusBadRequest, "validation_error"},
	{ErrInvalidState, http.StatusBadRequest, "invalid_state"},
	{ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{ErrForbidden, http.StatusForbidden, "forbidden"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrConflict, http.StatusConflict, "conflict"},
	{ErrExpired, http.StatusGone, "expired"},
	{ErrTerminalState, http.StatusUnprocessableEntity, "terminal_state"},
	{ErrNotDelivered, http.StatusUnprocessableEntity, "not_delivered"},
	{ErrInsufficientData, http.StatusUnprocessableEntity, "insufficient_data"},
}

func lookup(err error) (mapping, bool) {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return m, true
		}
	}
	return mapping{}, false
}

// HTTPStatus maps err to a response status; unknown errors are 500.
func HTTPStatus(err error) int {
	if m, ok := lookup(err); ok {
		return m.status
	}
	return http.StatusInternalServerError
}

// Code is the stable machine-readable name of err's kind.
func Code(err error) string {
	if m, ok := lookup(err); ok {
		return m.code
	}
	return "internal"
}

// Message returns text safe to show a client. Internal errors are not leaked.
func Message(err error) string {
	if _, ok := lookup(err); ok {
		var e *Error
		if errors.As(err, &e) && e.Msg != "" {
			return e.Msg
		}
		return err.Error()
	}
	return "internal server error"
}
