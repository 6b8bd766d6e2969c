package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/handmade-storefront/internal/middleware"
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/service"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateCODOrder handles POST /api/orders/create-cod
func (h *OrderHandler) CreateCODOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	order, err := h.orderService.CreateCODOrder(r.Context(), user.ID, req)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"orderId": order.OrderID,
		"data":    order,
	}, h.log)
}

// ListOrders handles GET /api/orders?status=&page=&limit= (admin)
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filterFromQuery(w, r)
	if !ok {
		return
	}
	h.writePage(w, r, f)
}

// ListMyOrders handles GET /api/orders/mine
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	f, ok := h.filterFromQuery(w, r)
	if !ok {
		return
	}
	f.UserID = user.ID
	h.writePage(w, r, f)
}

func (h *OrderHandler) writePage(w http.ResponseWriter, r *http.Request, f models.OrderFilter) {
	page, err := h.orderService.ListOrders(r.Context(), f)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    page.Orders,
		"pagination": map[string]interface{}{
			"page":  page.Page,
			"limit": page.Limit,
			"total": page.Total,
			"pages": page.Pages(),
		},
	}, h.log)
}

func (h *OrderHandler) filterFromQuery(w http.ResponseWriter, r *http.Request) (models.OrderFilter, bool) {
	q := r.URL.Query()
	f := models.OrderFilter{Status: models.OrderStatus(q.Get("status"))}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &f.Page}, {"limit", &f.Limit}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, p.name+" must be a positive integer", h.log)
			return f, false
		}
		*p.dst = n
	}
	return f, true
}

// GetOrder handles GET /api/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "orderId"), user.ID, user.IsAdmin())
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	WriteData(w, http.StatusOK, order, h.log)
}

// UpdateStatus handles PUT /api/orders (admin)
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateOrderStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), req)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	WriteData(w, http.StatusOK, order, h.log)
}
