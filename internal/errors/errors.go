package errors

import "fmt"

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	if ve, ok := err.(*ValidationError); ok {
		return ve, true
	}
	return nil, false
}

// NotFoundError signals that the requested order does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	if nfe, ok := err.(*NotFoundError); ok {
		return nfe, true
	}
	return nil, false
}

// ProductNotFoundError signals that the catalog could not resolve one or
// more product ids, or returned a malformed record for one of them.
type ProductNotFoundError struct {
	Message    string
	ProductIDs []string
}

func (e *ProductNotFoundError) Error() string {
	return e.Message
}

func NewProductNotFoundError(message string, productIDs ...string) *ProductNotFoundError {
	return &ProductNotFoundError{Message: message, ProductIDs: productIDs}
}

func IsProductNotFoundError(err error) (*ProductNotFoundError, bool) {
	if pnf, ok := err.(*ProductNotFoundError); ok {
		return pnf, true
	}
	return nil, false
}

// InvalidTransitionError signals an illegal order status change.
type InvalidTransitionError struct {
	Message string
}

func (e *InvalidTransitionError) Error() string {
	return e.Message
}

func NewInvalidTransitionError(message string) *InvalidTransitionError {
	return &InvalidTransitionError{Message: message}
}

func IsInvalidTransitionError(err error) (*InvalidTransitionError, bool) {
	if ite, ok := err.(*InvalidTransitionError); ok {
		return ite, true
	}
	return nil, false
}

// TimeoutError signals that an upstream call exceeded its bound. The
// operation may be retried.
type TimeoutError struct {
	Message string
	Cause   error
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

func NewTimeoutError(message string, cause error) *TimeoutError {
	return &TimeoutError{Message: message, Cause: cause}
}

func IsTimeoutError(err error) (*TimeoutError, bool) {
	if te, ok := err.(*TimeoutError); ok {
		return te, true
	}
	return nil, false
}

// PaymentSessionError signals that the payments service could not produce a
// session. OrderID identifies the already persisted PENDING order so the
// caller can retry session creation without re-creating the order.
type PaymentSessionError struct {
	Message string
	OrderID string
	Cause   error
}

func (e *PaymentSessionError) Error() string {
	msg := e.Message
	if e.OrderID != "" {
		msg = fmt.Sprintf("%s for order %s", e.Message, e.OrderID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PaymentSessionError) Unwrap() error {
	return e.Cause
}

func NewPaymentSessionError(message string, orderID string, cause error) *PaymentSessionError {
	return &PaymentSessionError{Message: message, OrderID: orderID, Cause: cause}
}

func IsPaymentSessionError(err error) (*PaymentSessionError, bool) {
	if pse, ok := err.(*PaymentSessionError); ok {
		return pse, true
	}
	return nil, false
}

// PersistenceError signals a failed store write.
type PersistenceError struct {
	Message string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

func NewPersistenceError(message string, cause error) *PersistenceError {
	return &PersistenceError{Message: message, Cause: cause}
}

func IsPersistenceError(err error) (*PersistenceError, bool) {
	if pe, ok := err.(*PersistenceError); ok {
		return pe, true
	}
	return nil, false
}
