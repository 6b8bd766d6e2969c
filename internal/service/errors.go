package service

import (
	"github.com/Lixing-Zhang/handmade-storefront/internal/apperr"
)

var (
	ErrEmptyOrder         = apperr.New(apperr.KindValidation, "Order must contain at least one item")
	ErrInvalidQuantity    = apperr.New(apperr.KindValidation, "Quantity must be positive")
	ErrInvalidProduct     = apperr.New(apperr.KindValidation, "One or more products are no longer available")
	ErrCODUnavailable     = apperr.New(apperr.KindValidation, "Cash on delivery is not available for one or more items")
	ErrMissingCustomer    = apperr.New(apperr.KindValidation, "Missing required customer details")
	ErrZeroTotal          = apperr.New(apperr.KindValidation, "Order total must be greater than zero for online payment")
	ErrProductNotFound    = apperr.New(apperr.KindNotFound, "Product not found")
	ErrOrderNotFound      = apperr.New(apperr.KindNotFound, "Order not found")
	ErrNotOrderOwner      = apperr.New(apperr.KindForbidden, "You do not have access to this order")
	ErrInvalidSignature   = apperr.New(apperr.KindValidation, "Payment verification failed")
	ErrNotAwaitingPayment = apperr.New(apperr.KindConflict, "Order is not awaiting payment")
	ErrInvalidStatus      = apperr.New(apperr.KindValidation, "Invalid order status")
	ErrConcurrentUpdate   = apperr.New(apperr.KindConflict, "Order was updated concurrently, reload and retry")
	ErrCouponNotFound     = apperr.New(apperr.KindNotFound, "Coupon not found")
	ErrDuplicateCoupon    = apperr.New(apperr.KindConflict, "Coupon code already exists")
)
