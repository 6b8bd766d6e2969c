package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's value is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// Coupon is a named discount rule. Code is always stored uppercase.
type Coupon struct {
	ID            string          `json:"id" bson:"_id"`
	Code          string          `json:"code" bson:"code"`
	DiscountType  DiscountType    `json:"discountType" bson:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue" bson:"discountValue"`
	MinOrderValue decimal.Decimal `json:"minOrderValue" bson:"minOrderValue"`
	IsActive      bool            `json:"isActive" bson:"isActive"`
	UsageCount    int             `json:"usageCount" bson:"usageCount"`
	MaxUses       *int            `json:"maxUses" bson:"maxUses"`
	ValidUntil    *time.Time      `json:"validUntil" bson:"validUntil"`
	CreatedAt     time.Time       `json:"createdAt" bson:"createdAt"`
}

// ValidateCouponRequest is the body of POST /coupon/validate.
type ValidateCouponRequest struct {
	Code       string           `json:"code" validate:"required,max=64"`
	OrderValue *decimal.Decimal `json:"orderValue" validate:"required"`
}

// CouponValidation is the outcome of a successful validation.
type CouponValidation struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	DiscountType   DiscountType    `json:"discountType"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// CreateCouponRequest is the admin payload for a new coupon.
type CreateCouponRequest struct {
	Code          string          `json:"code" validate:"required,alphanum,min=3,max=32"`
	DiscountType  DiscountType    `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MinOrderValue decimal.Decimal `json:"minOrderValue"`
	IsActive      *bool           `json:"isActive"`
	MaxUses       *int            `json:"maxUses" validate:"omitempty,min=1"`
	ValidUntil    *time.Time      `json:"validUntil"`
}

// UpdateCouponRequest toggles a coupon on or off.
type UpdateCouponRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
