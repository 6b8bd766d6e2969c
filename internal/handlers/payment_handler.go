package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/handmade-storefront/internal/middleware"
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/service"
)

// PaymentHandler handles the online payment endpoints
type PaymentHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

func NewPaymentHandler(orderService *service.OrderService, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder handles POST /api/payment/create-order. The amount returned
// is in the currency's minor unit, as the gateway checkout expects.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	po, err := h.orderService.CreatePaymentOrder(r.Context(), user.ID, req)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"orderId":  po.Order.OrderID,
		"amount":   po.AmountMinor,
		"currency": po.Order.Currency,
		"keyId":    po.KeyID,
	}, h.log)
}

// Verify handles POST /api/payment/verify
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req models.VerifyPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	order, err := h.orderService.VerifyPayment(r.Context(), user.ID, req)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"orderId":   order.OrderID,
		"paymentId": order.PaymentID,
		"amount":    order.Amount,
	}, h.log)
}
