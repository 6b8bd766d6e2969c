package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Lixing-Zhang/handmade-storefront/internal/middleware"
	"github.com/Lixing-Zhang/handmade-storefront/internal/service"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Logger    *slog.Logger
	Store     Pinger
	Validator couponValidator
	Products  *service.ProductService
	Coupons   *service.CouponService
	Carts     *service.CartService
	Orders    *service.OrderService

	JWTSecret      []byte
	AllowedOrigins []string
	// RateLimit write requests per RateWindow per client IP.
	RateLimit  int
	RateWindow time.Duration
}

// NewRouter builds the chi router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger

	healthHandler := NewHealthHandler(cfg.Store, log)
	productHandler := NewProductHandler(cfg.Products, log)
	couponHandler := NewCouponHandler(cfg.Validator, cfg.Coupons, log)
	cartHandler := NewCartHandler(cfg.Carts, log)
	orderHandler := NewOrderHandler(cfg.Orders, log)
	paymentHandler := NewPaymentHandler(cfg.Orders, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Route not found", log)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", log)
	})

	r.Get("/health", healthHandler.ServeHTTP)

	limitWrites := httprate.Limit(cfg.RateLimit, cfg.RateWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, http.StatusTooManyRequests, "Too many requests, please slow down", log)
		}),
	)
	authenticate := middleware.Authenticate(cfg.JWTSecret)

	r.Route("/api", func(r chi.Router) {
		// Public catalog and coupon preview
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{productId}", productHandler.GetProduct)
		r.With(limitWrites).Post("/coupon/validate", couponHandler.ValidateCoupon)

		// Signed-in customers
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/cart", cartHandler.GetCart)
			r.Get("/orders/mine", orderHandler.ListMyOrders)
			r.Get("/orders/{orderId}", orderHandler.GetOrder)

			r.Group(func(r chi.Router) {
				r.Use(limitWrites)

				r.Delete("/cart", cartHandler.ClearCart)
				r.Post("/cart/items", cartHandler.AddItem)
				r.Patch("/cart/items/{productId}", cartHandler.SetQuantity)
				r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)
				r.Post("/cart/merge", cartHandler.Merge)

				r.Post("/orders/create-cod", orderHandler.CreateCODOrder)
				r.Post("/payment/create-order", paymentHandler.CreateOrder)
				r.Post("/payment/verify", paymentHandler.Verify)
			})
		})

		// Admin dashboard
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireAdmin)

			r.Post("/products", productHandler.CreateProduct)

			r.Get("/coupon/stats", couponHandler.GetStats)
			r.Get("/coupons", couponHandler.ListCoupons)
			r.Post("/coupons", couponHandler.CreateCoupon)
			r.Patch("/coupons/{code}", couponHandler.UpdateCoupon)
			r.Delete("/coupons/{code}", couponHandler.DeleteCoupon)

			r.Get("/orders", orderHandler.ListOrders)
			r.Put("/orders", orderHandler.UpdateStatus)
		})
	})

	return r
}
