package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Lixing-Zhang/handmade-storefront/internal/config"
	"github.com/Lixing-Zhang/handmade-storefront/internal/coupon"
	"github.com/Lixing-Zhang/handmade-storefront/internal/handlers"
	"github.com/Lixing-Zhang/handmade-storefront/internal/notify"
	"github.com/Lixing-Zhang/handmade-storefront/internal/payment"
	"github.com/Lixing-Zhang/handmade-storefront/internal/repository"
	"github.com/Lixing-Zhang/handmade-storefront/internal/sanitize"
	"github.com/Lixing-Zhang/handmade-storefront/internal/service"
	"github.com/Lixing-Zhang/handmade-storefront/pkg/logger"
)

// stores is the set of repositories behind the selected driver.
type stores struct {
	products repository.ProductRepository
	coupons  repository.CouponRepository
	orders   repository.OrderRepository
	carts    repository.CartRepository
	pinger   repository.Pinger
	// prepare runs once before serving; close runs on shutdown.
	prepare func(ctx context.Context) error
	close   func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg config.StoreConfig) (*stores, error) {
	if cfg.Driver == config.DriverMemory {
		return &stores{
			products: repository.NewInMemoryProductRepository(),
			coupons:  repository.NewInMemoryCouponRepository(),
			orders:   repository.NewInMemoryOrderRepository(),
			carts:    repository.NewInMemoryCartRepository(),
			pinger:   repository.MemoryPinger{},
			prepare:  func(context.Context) error { return nil },
			close:    func(context.Context) error { return nil },
		}, nil
	}

	m, err := repository.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	return &stores{
		products: m.Products(),
		coupons:  m.Coupons(),
		orders:   m.Orders(),
		carts:    m.Carts(),
		pinger:   m,
		prepare:  m.EnsureIndexes,
		close:    m.Close,
	}, nil
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting storefront api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"store", cfg.Store.Driver,
		"log_level", cfg.LogLevel,
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openStores(startCtx, cfg.Store)
	if err != nil {
		cancelStart()
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	couponValidator := coupon.NewValidator(st.coupons,
		coupon.WithMissRate(rate.Limit(cfg.Coupons.MissRate), 2*cfg.Coupons.MissRate),
	)

	// Indexes and the coupon code index are independent; build them together
	g, gctx := errgroup.WithContext(startCtx)
	g.Go(func() error { return st.prepare(gctx) })
	g.Go(func() error { return couponValidator.LoadIndex(gctx) })
	err = g.Wait()
	cancelStart()
	if err != nil {
		log.Error("failed to prepare store", "error", err)
		os.Exit(1)
	}

	stats := couponValidator.GetStats()
	log.Info("coupon index loaded",
		"indexed_codes", stats["indexed_codes"],
		"index_capacity", stats["index_capacity"],
	)

	// Pick up coupons written by other instances
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	if cfg.Coupons.IndexRefresh > 0 {
		go refreshCouponIndex(refreshCtx, couponValidator, cfg.Coupons.IndexRefresh, log)
	}

	// Payment gateway
	var gateway payment.Gateway
	if cfg.Payment.KeyID != "" {
		gateway = payment.NewRazorpayGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret)
		log.Info("payment gateway configured", "provider", "razorpay")
	} else {
		gateway = payment.NewOfflineGateway("offline")
		log.Warn("RAZORPAY_KEY_ID not set, using offline payment gateway")
	}

	// Order emails
	var mailer notify.Mailer
	if cfg.Email.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.Email.ResendAPIKey, cfg.Email.From)
	} else {
		mailer = notify.NewLogMailer(log)
		log.Warn("RESEND_API_KEY not set, order emails will only be logged")
	}
	dispatcher := notify.NewDispatcher(mailer, log, cfg.Email.ShopName, 10*time.Second)

	// Initialize services
	productService := service.NewProductService(st.products, log)
	couponService := service.NewCouponService(st.coupons, couponValidator, log)
	cartService := service.NewCartService(st.carts, st.products, log)
	orderService := service.NewOrderService(service.OrderServiceConfig{
		Products:      st.products,
		Coupons:       st.coupons,
		Orders:        st.orders,
		Validator:     couponValidator,
		Gateway:       gateway,
		Notifier:      dispatcher,
		Sanitizer:     sanitize.New(),
		PaymentSecret: cfg.Payment.KeySecret,
		Currency:      cfg.Payment.Currency,
		Logger:        log,
	})

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:         log,
		Store:          st.pinger,
		Validator:      couponValidator,
		Products:       productService,
		Coupons:        couponService,
		Carts:          cartService,
		Orders:         orderService,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimit:      cfg.RateLimit.Requests,
		RateWindow:     cfg.RateLimit.Window,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopRefresh()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	exitCode := 0
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		exitCode = 1
	}
	if err := dispatcher.Wait(ctx); err != nil {
		log.Warn("pending emails abandoned", "error", err)
	}
	if err := st.close(ctx); err != nil {
		log.Error("failed to close store", "error", err)
		exitCode = 1
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	log.Info("server stopped gracefully")
}

// refreshCouponIndex rebuilds the coupon code index every interval until ctx
// is cancelled. A failed rebuild keeps the previous index.
func refreshCouponIndex(ctx context.Context, v *coupon.Validator, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := v.LoadIndex(loadCtx)
			cancel()
			if err != nil {
				log.Warn("failed to refresh coupon index", "error", err)
				continue
			}
			log.Debug("coupon index refreshed", "indexed_codes", v.GetStats()["indexed_codes"])
		}
	}
}
