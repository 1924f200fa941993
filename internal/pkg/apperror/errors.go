// Package apperror defines the error kinds returned by the checkout pipeline.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain failure
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindInsufficientInventory
	KindInvalidState
	KindConflict
	KindPaymentFailed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindInsufficientInventory:
		return "insufficient_inventory"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindPaymentFailed:
		return "payment_failed"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is matching on kind alone
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrValidation            = &Error{Kind: KindValidation}
	ErrInsufficientInventory = &Error{Kind: KindInsufficientInventory}
	ErrInvalidState          = &Error{Kind: KindInvalidState}
	ErrConflict              = &Error{Kind: KindConflict}
	ErrPaymentFailed         = &Error{Kind: KindPaymentFailed}
)

// Error is a classified domain error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound reports a missing entity
func NotFound(entity string, id any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found with id: %v", entity, id)}
}

// NotFoundf reports a missing entity with a custom message
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed input or a precondition failure
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InsufficientInventory reports that stock cannot cover the requested quantity
func InsufficientInventory(productName string, available int) *Error {
	return &Error{
		Kind:    KindInsufficientInventory,
		Message: fmt.Sprintf("insufficient inventory for product: %s, available: %d", productName, available),
	}
}

// InvalidState reports an entity that cannot take part in the operation
func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports an illegal transition or a concurrent operation
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// PaymentFailed reports a declined or timed-out charge. The cause is kept for
// logs but never rendered to clients.
func PaymentFailed(message string, cause error) *Error {
	return &Error{Kind: KindPaymentFailed, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code returned by the API
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindInsufficientInventory, KindConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindPaymentFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show to API clients
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "Internal server error"
	}
	if appErr.Kind == KindPaymentFailed {
		if appErr.Message != "" {
			return appErr.Message
		}
		return "Payment failed"
	}
	return appErr.Error()
}
