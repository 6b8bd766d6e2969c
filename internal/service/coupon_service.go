package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/handmade-storefront/internal/apperr"
	"github.com/Lixing-Zhang/handmade-storefront/internal/coupon"
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/repository"
)

// CodeIndex learns codes created after startup.
type CodeIndex interface {
	Remember(code string)
}

// CouponService manages coupons for the admin dashboard.
type CouponService struct {
	repo  repository.CouponRepository
	index CodeIndex
	log   *slog.Logger
	now   func() time.Time
}

func NewCouponService(repo repository.CouponRepository, index CodeIndex, log *slog.Logger) *CouponService {
	return &CouponService{
		repo:  repo,
		index: index,
		log:   log,
		now:   time.Now,
	}
}

var hundred = decimal.NewFromInt(100)

// Create stores a new coupon. Codes are uppercased; a duplicate code is a
// conflict.
func (s *CouponService) Create(ctx context.Context, req models.CreateCouponRequest) (*models.Coupon, error) {
	code := coupon.Normalize(req.Code)

	if !req.DiscountType.Valid() {
		return nil, apperr.Validation("Discount type must be percentage or fixed")
	}
	if !req.DiscountValue.IsPositive() {
		return nil, apperr.Validation("Discount value must be positive")
	}
	if req.DiscountType == models.DiscountPercentage && req.DiscountValue.GreaterThan(hundred) {
		return nil, apperr.Validation("Percentage discount cannot exceed 100")
	}
	if req.MinOrderValue.IsNegative() {
		return nil, apperr.Validation("Minimum order value cannot be negative")
	}
	if req.ValidUntil != nil && !req.ValidUntil.After(s.now()) {
		return nil, apperr.Validation("Expiry must be in the future")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	c := &models.Coupon{
		ID:            uuid.NewString(),
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinOrderValue: req.MinOrderValue,
		IsActive:      active,
		MaxUses:       req.MaxUses,
		ValidUntil:    req.ValidUntil,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicateCoupon) {
			return nil, ErrDuplicateCoupon
		}
		return nil, err
	}

	s.index.Remember(code)
	s.log.Info("coupon created", "code", code, "type", c.DiscountType, "value", c.DiscountValue.String())
	return c, nil
}

func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *CouponService) SetActive(ctx context.Context, code string, active bool) (*models.Coupon, error) {
	c, err := s.repo.SetActive(ctx, coupon.Normalize(code), active)
	if errors.Is(err, repository.ErrCouponNotFound) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("coupon updated", "code", c.Code, "active", active)
	return c, nil
}

func (s *CouponService) Delete(ctx context.Context, code string) error {
	err := s.repo.Delete(ctx, coupon.Normalize(code))
	if errors.Is(err, repository.ErrCouponNotFound) {
		return ErrCouponNotFound
	}
	if err == nil {
		s.log.Info("coupon deleted", "code", coupon.Normalize(code))
	}
	return err
}
