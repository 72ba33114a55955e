// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and HTTP mapping
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindOutOfStock
	KindEmptyCart
	KindInvalidState
	KindInvalidTransition
	KindAlreadyConfirmed
	KindStorage
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindOutOfStock:
		return "out_of_stock"
	case KindEmptyCart:
		return "empty_cart"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindAlreadyConfirmed:
		return "already_confirmed"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is the single error type carried across domain boundaries
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind so callers can use errors.Is with sentinels
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Validation reports missing or malformed input
func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

// NotFound reports an unknown plant, order or cart line
func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

// OutOfStock reports a quantity exceeding available stock
func OutOfStock(format string, args ...interface{}) *Error {
	return newError(KindOutOfStock, format, args...)
}

// EmptyCart reports an order attempt against an empty cart
func EmptyCart(format string, args ...interface{}) *Error {
	return newError(KindEmptyCart, format, args...)
}

// InvalidState reports an operation against an order in the wrong state
func InvalidState(format string, args ...interface{}) *Error {
	return newError(KindInvalidState, format, args...)
}

// InvalidTransition reports an unreachable status transition
func InvalidTransition(format string, args ...interface{}) *Error {
	return newError(KindInvalidTransition, format, args...)
}

// AlreadyConfirmed reports a duplicate payment confirmation
func AlreadyConfirmed(format string, args ...interface{}) *Error {
	return newError(KindAlreadyConfirmed, format, args...)
}

// Storage wraps a persistence failure; callers must treat the operation
// as not having happened
func Storage(err error, format string, args ...interface{}) *Error {
	e := newError(KindStorage, format, args...)
	e.Err = err
	return e
}

// KindOf extracts the kind of an error, KindUnknown for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to the HTTP status code of the API surface
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindEmptyCart:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindOutOfStock, KindInvalidState, KindInvalidTransition, KindAlreadyConfirmed:
		return http.StatusConflict
	case KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
