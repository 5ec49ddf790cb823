package service

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAmountMismatch    = errors.New("amount does not match order total")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrValidation        = errors.New("validation failed")
	ErrRateLimited       = errors.New("too many payment attempts")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
