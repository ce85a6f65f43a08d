package booking

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors for the boundary layer.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindForbidden  ErrorKind = "forbidden"
	KindDependency ErrorKind = "dependency"
)

// Error codes surfaced to callers.
const (
	CodeBookingNotFound     = "BookingNotFound"
	CodeProviderNotFound    = "ProviderNotFound"
	CodeServiceNotFound     = "ServiceNotFound"
	CodeShopNotFound        = "ShopNotFound"
	CodeCustomerNotFound    = "CustomerNotFound"
	CodeInvalidRequest      = "InvalidRequest"
	CodeSelfBooking         = "SelfBooking"
	CodeModeIncompatible    = "ModeIncompatible"
	CodeLeadTimeTooShort    = "LeadTimeTooShort"
	CodeOutsideWorkingHours = "OutsideWorkingHours"
	CodeProviderNotInShop   = "ProviderNotInShop"
	CodeSlotUnavailable     = "SlotUnavailable"
	CodeDuplicateBooking    = "DuplicateBooking"
	CodeInvalidTransition   = "InvalidTransition"
	CodeAlreadyRated        = "AlreadyRated"
	CodeNotRateable         = "NotRateable"
	CodeStaleWrite          = "StaleWrite"
	CodeForbidden           = "Forbidden"
	CodeDependency          = "DependencyFailure"
)

// Error is the typed error returned by every booking use-case.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts an engine error from err's chain.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// HasCode reports whether err is an engine error with the given code.
func HasCode(err error, code string) bool {
	be, ok := AsError(err)
	return ok && be.Code == code
}

func newError(kind ErrorKind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFound(code, format string, args ...any) error {
	return newError(KindNotFound, code, format, args...)
}

func invalid(format string, args ...any) error {
	return newError(KindValidation, CodeInvalidRequest, format, args...)
}

func validation(code, format string, args ...any) error {
	return newError(KindValidation, code, format, args...)
}

func conflict(code, format string, args ...any) error {
	return newError(KindConflict, code, format, args...)
}

func forbidden(format string, args ...any) error {
	return newError(KindForbidden, CodeForbidden, format, args...)
}

// dependency wraps a collaborator failure with context.
func dependency(err error, format string, args ...any) error {
	e := newError(KindDependency, CodeDependency, format, args...)
	e.Err = err
	return e
}
