package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/handmade-storefront/internal/middleware"
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/service"
)

// CartHandler serves the signed-in customer's cart
type CartHandler struct {
	cartService *service.CartService
	log         *slog.Logger
}

func NewCartHandler(cartService *service.CartService, log *slog.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		log:         log,
	}
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, v *service.CartView, err error) {
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	WriteData(w, http.StatusOK, v, h.log)
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	v, err := h.cartService.Get(r.Context(), user.ID)
	h.respond(w, r, v, err)
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	v, err := h.cartService.Clear(r.Context(), user.ID)
	h.respond(w, r, v, err)
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.AddCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	v, err := h.cartService.AddItem(r.Context(), user.ID, req)
	h.respond(w, r, v, err)
}

// SetQuantity handles PATCH /api/cart/items/{productId}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.SetCartQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	v, err := h.cartService.SetQuantity(r.Context(), user.ID, chi.URLParam(r, "productId"), req.Quantity)
	h.respond(w, r, v, err)
}

// RemoveItem handles DELETE /api/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	v, err := h.cartService.RemoveItem(r.Context(), user.ID, chi.URLParam(r, "productId"))
	h.respond(w, r, v, err)
}

// Merge handles POST /api/cart/merge, folding a guest cart in on sign-in
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.MergeCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	v, err := h.cartService.Merge(r.Context(), user.ID, req.Items)
	h.respond(w, r, v, err)
}
