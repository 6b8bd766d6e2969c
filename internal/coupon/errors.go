package coupon

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/handmade-storefront/internal/apperr"
)

var (
	ErrNotFound      = apperr.New(apperr.KindNotFound, "Invalid coupon code")
	ErrInactive      = apperr.New(apperr.KindValidation, "This coupon is no longer active")
	ErrExpired       = apperr.New(apperr.KindValidation, "This coupon has expired")
	ErrUsageExceeded = apperr.New(apperr.KindValidation, "This coupon has reached its usage limit")
	ErrBelowMinimum  = apperr.New(apperr.KindValidation, "Order value is below the coupon minimum")
)

// MinimumOrderError is ErrBelowMinimum carrying the minimum that was missed.
type MinimumOrderError struct {
	Minimum decimal.Decimal
}

func (e *MinimumOrderError) Error() string {
	return fmt.Sprintf("Minimum order value of %s required for this coupon", e.Minimum.StringFixed(2))
}

func (e *MinimumOrderError) Is(target error) bool {
	return target == ErrBelowMinimum
}

func (e *MinimumOrderError) Kind() apperr.Kind {
	return apperr.KindValidation
}

// IsRejection reports whether err is one of the coupon rule failures, as
// opposed to a store error.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInactive) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrUsageExceeded) ||
		errors.Is(err, ErrBelowMinimum)
}
