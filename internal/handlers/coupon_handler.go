package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/service"
)

// couponValidator is the interface for coupon validation
type couponValidator interface {
	Validate(ctx context.Context, code string, orderValue decimal.Decimal) (*models.CouponValidation, error)
	GetStats() map[string]interface{}
}

// CouponHandler handles coupon validation and the admin coupon endpoints
type CouponHandler struct {
	validator couponValidator
	service   *service.CouponService
	logger    *slog.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(validator couponValidator, svc *service.CouponService, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		validator: validator,
		service:   svc,
		logger:    logger,
	}
}

// ValidateCoupon handles POST /api/coupon/validate
// It never consumes a use of the coupon.
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateCouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}
	if req.OrderValue.IsNegative() {
		WriteError(w, http.StatusBadRequest, "orderValue cannot be negative", h.logger)
		return
	}

	result, err := h.validator.Validate(r.Context(), req.Code, *req.OrderValue)
	if err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}

	WriteData(w, http.StatusOK, result, h.logger)
}

// GetStats handles GET /api/coupon/stats (for debugging/monitoring)
func (h *CouponHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, h.validator.GetStats(), h.logger)
}

// ListCoupons handles GET /api/coupons
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.List(r.Context())
	if err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}
	WriteData(w, http.StatusOK, coupons, h.logger)
}

// CreateCoupon handles POST /api/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}
	WriteData(w, http.StatusCreated, c, h.logger)
}

// UpdateCoupon handles PATCH /api/coupons/{code}
func (h *CouponHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}

	c, err := h.service.SetActive(r.Context(), chi.URLParam(r, "code"), *req.IsActive)
	if err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}
	WriteData(w, http.StatusOK, c, h.logger)
}

// DeleteCoupon handles DELETE /api/coupons/{code}
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true}, h.logger)
}
