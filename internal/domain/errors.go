package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOrderCancelled     = errors.New("order already cancelled")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrReviewExists       = errors.New("product already reviewed by this user")
	ErrIdempotencyReplay  = errors.New("idempotency key already used")
	ErrCouponCodeTaken    = errors.New("coupon code already exists")

	ErrCouponInvalid       = errors.New("coupon invalid or expired")
	ErrCouponLimitExceeded = errors.New("coupon usage limit exceeded")
	ErrCouponBelowMinimum  = errors.New("order amount below coupon minimum")
)

// ValidationError marks bad request input; the HTTP layer maps it to 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
