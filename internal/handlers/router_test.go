package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/handmade-storefront/internal/coupon"
	"github.com/Lixing-Zhang/handmade-storefront/internal/middleware"
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/payment"
	"github.com/Lixing-Zhang/handmade-storefront/internal/repository"
	"github.com/Lixing-Zhang/handmade-storefront/internal/service"
)

var (
	jwtSecret     = []byte("handlers-test-secret-0123")
	paymentSecret = "handlers-payment-secret"
)

type testEnv struct {
	handler  http.Handler
	products *repository.InMemoryProductRepository
	coupons  *repository.InMemoryCouponRepository
	orders   *repository.InMemoryOrderRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	maxOne := 1
	env := &testEnv{
		products: repository.NewInMemoryProductRepository(),
		coupons: repository.NewInMemoryCouponRepository(
			models.Coupon{ID: "c1", Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: decimal.NewFromInt(10), IsActive: true},
			models.Coupon{ID: "c2", Code: "ONCE", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(50), IsActive: true, MaxUses: &maxOne, UsageCount: 1},
		),
		orders: repository.NewInMemoryOrderRepository(),
	}

	validator := coupon.NewValidator(env.coupons)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, validator.LoadIndex(ctx))

	env.handler = NewRouter(RouterConfig{
		Logger:    log,
		Store:     repository.MemoryPinger{},
		Validator: validator,
		Products:  service.NewProductService(env.products, log),
		Coupons:   service.NewCouponService(env.coupons, validator, log),
		Carts:     service.NewCartService(repository.NewInMemoryCartRepository(), env.products, log),
		Orders: service.NewOrderService(service.OrderServiceConfig{
			Products:      env.products,
			Coupons:       env.coupons,
			Orders:        env.orders,
			Validator:     validator,
			Gateway:       payment.NewOfflineGateway("rzp_test_key"),
			PaymentSecret: paymentSecret,
			Currency:      "INR",
			Logger:        log,
		}),
		JWTSecret:      jwtSecret,
		AllowedOrigins: []string{"*"},
		RateLimit:      1000,
		RateWindow:     time.Minute,
	})
	return env
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := middleware.IssueToken(jwtSecret, userID, userID+"@example.com", role, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends body (marshalled unless it is already a string) with an optional
// bearer token and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	OrderID    string          `json:"orderId"`
	PaymentID  string          `json:"paymentId"`
	Amount     json.Number     `json:"amount"`
	Currency   string          `json:"currency"`
	KeyID      string          `json:"keyId"`
	Pagination struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
		Pages int64 `json:"pages"`
	} `json:"pagination"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

func checkoutBody(couponCode string) map[string]interface{} {
	return map[string]interface{}{
		"amount": 788,
		"items": []map[string]interface{}{
			{"productId": "1", "quantity": 2, "name": "Mug", "price": 299},
			{"productId": "2", "quantity": 1},
		},
		"customer": map[string]interface{}{
			"name":    "Asha Rao",
			"email":   "asha@example.com",
			"phone":   "9876543210",
			"address": "12 MG Road, Bengaluru",
		},
		"shippingCharges": 40,
		"couponCode":      couponCode,
	}
}
