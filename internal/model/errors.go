package model

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork             = errors.New("network error")
	ErrValidation          = errors.New("validation error")
	ErrClientNotFound      = errors.New("client not found")
	ErrNotFound            = errors.New("not found")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
)

// ValidationError describes a rejected field. errors.Is(err, ErrValidation) holds for it.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorMessage returns the user-facing text for err
func ErrorMessage(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, ErrNetwork):
		return "Could not reach the booking service. Please try again."
	case errors.Is(err, ErrClientNotFound):
		return "Client not found"
	case errors.Is(err, ErrNotFound):
		return "Record not found"
	case errors.Is(err, ErrConcurrencyConflict):
		return "Session counts were changed by someone else. Refresh and try again."
	case errors.Is(err, ErrPaymentNotConfirmed):
		return "Your payment is still processing. If this persists, please contact support."
	default:
		return "Something went wrong"
	}
}
