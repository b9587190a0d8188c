// Package apperror holds the error kinds surfaced to the bot and the HTTP API.
//
// Services return *Error values (or errors wrapping them); callers inspect the
// kind with errors.Is against the Err* sentinels or with KindOf.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindConflict            Kind = "conflict"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindInvalidTransition   Kind = "invalid_transition"
	KindDuplicate           Kind = "duplicate"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindUnauthorized        Kind = "unauthorized"
	KindInternal            Kind = "internal"
)

// Sentinels, one per kind. *Error matches its kind's sentinel in errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflicting request")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrDuplicate           = errors.New("duplicate record")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInternal            = errors.New("internal error")
)

var sentinels = map[Kind]error{
	KindValidation:          ErrValidation,
	KindConflict:            ErrConflict,
	KindInsufficientBalance: ErrInsufficientBalance,
	KindInvalidTransition:   ErrInvalidTransition,
	KindDuplicate:           ErrDuplicate,
	KindNotFound:            ErrNotFound,
	KindForbidden:           ErrForbidden,
	KindUnauthorized:        ErrUnauthorized,
	KindInternal:            ErrInternal,
}

type Error struct {
	Kind    Kind
	Message string // user-facing
	Err     error  // wrapped cause, optional
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func NotFound(what string) *Error { return Newf(KindNotFound, "%s not found", what) }

// InvalidTransition reports a status change the request's current state forbids.
func InvalidTransition(format string, args ...any) *Error {
	return Newf(KindInvalidTransition, format, args...)
}

// InsufficientBalanceError carries the numbers behind a failed debit.
type InsufficientBalanceError struct {
	EmployeeID uint
	Balance    string // column name of the counter
	Available  int
	Requested  int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// KindOf reports the kind of err, KindInternal for anything unrecognised.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	var balErr *InsufficientBalanceError
	if errors.As(err, &balErr) {
		return KindInsufficientBalance
	}
	return KindInternal
}

// HTTPStatus maps a kind to the status code used by the API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindDuplicate, KindInvalidTransition:
		return http.StatusConflict
	case KindInsufficientBalance:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError is true for kinds caused by caller input or state.
func IsClientError(err error) bool {
	k := KindOf(err)
	return k != "" && k != KindInternal
}
