package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Lixing-Zhang/handmade-storefront/internal/apperr"
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/payment"
	"github.com/Lixing-Zhang/handmade-storefront/internal/pricing"
	"github.com/Lixing-Zhang/handmade-storefront/internal/repository"
	"github.com/Lixing-Zhang/handmade-storefront/internal/sanitize"
)

// CouponValidator is the part of coupon.Validator checkout needs.
type CouponValidator interface {
	Lookup(ctx context.Context, code string) (*models.Coupon, error)
	Check(c *models.Coupon, orderValue decimal.Decimal) error
}

// Notifier is told about every successfully placed order.
type Notifier interface {
	OrderPlaced(o *models.Order)
}

// OrderServiceConfig wires an OrderService.
type OrderServiceConfig struct {
	Products      repository.ProductRepository
	Coupons       repository.CouponRepository
	Orders        repository.OrderRepository
	Validator     CouponValidator
	Gateway       payment.Gateway
	Notifier      Notifier
	Sanitizer     *sanitize.Sanitizer
	PaymentSecret string
	Currency      string
	Logger        *slog.Logger
	// MaxConcurrentLookups bounds catalog reads per checkout; default 8.
	MaxConcurrentLookups int
	// Now defaults to time.Now.
	Now func() time.Time
}

// OrderService handles checkout and the order lifecycle
type OrderService struct {
	products      repository.ProductRepository
	coupons       repository.CouponRepository
	orders        repository.OrderRepository
	validator     CouponValidator
	gateway       payment.Gateway
	notifier      Notifier
	sanitizer     *sanitize.Sanitizer
	paymentSecret string
	currency      string
	log           *slog.Logger
	maxLookups    int
	now           func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(cfg OrderServiceConfig) *OrderService {
	s := &OrderService{
		products:      cfg.Products,
		coupons:       cfg.Coupons,
		orders:        cfg.Orders,
		validator:     cfg.Validator,
		gateway:       cfg.Gateway,
		notifier:      cfg.Notifier,
		sanitizer:     cfg.Sanitizer,
		paymentSecret: cfg.PaymentSecret,
		currency:      cfg.Currency,
		log:           cfg.Logger,
		maxLookups:    cfg.MaxConcurrentLookups,
		now:           cfg.Now,
	}
	if s.maxLookups <= 0 {
		s.maxLookups = 8
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.currency == "" {
		s.currency = "INR"
	}
	if s.sanitizer == nil {
		s.sanitizer = sanitize.New()
	}
	return s
}

// checkout is a priced, validated order before it is persisted.
type checkout struct {
	items    []models.OrderItem
	totals   pricing.Totals
	coupon   *models.Coupon
	customer models.CustomerInfo
}

// prepare snapshots the requested items from the catalog and prices them.
// Client-side amounts in req are compared, never used.
func (s *OrderService) prepare(ctx context.Context, req models.CheckoutRequest, method models.PaymentMethod) (*checkout, error) {
	requested, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, len(requested))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxLookups)

	for idx := range requested {
		idx := idx
		g.Go(func() error {
			it := requested[idx]
			p, err := s.products.GetByID(gctx, it.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrProductNotFound) {
					return ErrInvalidProduct
				}
				return fmt.Errorf("failed to get product %s: %w", it.ProductID, err)
			}
			if err := checkStock(p, it.Quantity); err != nil {
				return err
			}
			if method == models.PaymentCOD && !p.CODAvailable {
				return ErrCODUnavailable
			}

			items[idx] = models.OrderItem{
				ProductID:      p.ID,
				Name:           p.Name,
				Price:          p.EffectivePrice(),
				Quantity:       it.Quantity,
				Image:          p.Image(),
				ShippingCharge: p.ShippingCharge,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := pricing.OrderLines(items)
	subtotal := pricing.ComputeTotal(lines, nil).Subtotal

	var c *models.Coupon
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		c, err = s.validator.Lookup(ctx, code)
		if err != nil {
			return nil, err
		}
		if err := s.validator.Check(c, subtotal); err != nil {
			return nil, err
		}
	}

	totals := pricing.ComputeTotal(lines, pricing.DiscountFor(c))
	if method == models.PaymentOnline && !totals.GrandTotal.IsPositive() {
		return nil, ErrZeroTotal
	}

	if !req.Amount.IsZero() && !req.Amount.Equal(totals.GrandTotal) {
		s.log.Warn("client total differs from server total",
			"client_amount", req.Amount.String(),
			"server_amount", totals.GrandTotal.String(),
		)
	}
	if req.DiscountAmount != nil && !req.DiscountAmount.Equal(totals.Discount) {
		s.log.Warn("client discount differs from server discount",
			"client_discount", req.DiscountAmount.String(),
			"server_discount", totals.Discount.String(),
		)
	}

	customer := s.sanitizer.Customer(req.Customer)
	if customer.Name == "" || customer.Email == "" || customer.Phone == "" || customer.Address == "" {
		return nil, ErrMissingCustomer
	}

	return &checkout{
		items:    items,
		totals:   totals,
		coupon:   c,
		customer: customer,
	}, nil
}

// mergeItems folds repeated products into one line, keeping first-seen order.
func mergeItems(in []models.CheckoutItem) ([]models.CheckoutItem, error) {
	if len(in) == 0 {
		return nil, ErrEmptyOrder
	}

	out := make([]models.CheckoutItem, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, it := range in {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		id := it.Product()
		if id == "" {
			return nil, ErrInvalidProduct
		}
		if i, seen := pos[id]; seen {
			out[i].Quantity += it.Quantity
			continue
		}
		pos[id] = len(out)
		out = append(out, models.CheckoutItem{ProductID: id, Quantity: it.Quantity})
	}
	return out, nil
}

func (s *OrderService) newOrder(userID, orderID string, method models.PaymentMethod, status models.OrderStatus, co *checkout) *models.Order {
	now := s.now().UTC()
	o := &models.Order{
		OrderID:         orderID,
		UserID:          userID,
		PaymentMethod:   method,
		Amount:          co.totals.GrandTotal,
		Subtotal:        co.totals.Subtotal,
		ShippingCharges: co.totals.Shipping,
		Currency:        s.currency,
		Status:          status,
		Items:           co.items,
		Customer:        co.customer,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if co.coupon != nil {
		code := co.coupon.Code
		discount := co.totals.Discount
		o.CouponCode = &code
		o.DiscountAmount = &discount
	}
	return o
}

// CreateCODOrder places a cash-on-delivery order. It is born pending.
func (s *OrderService) CreateCODOrder(ctx context.Context, userID string, req models.CheckoutRequest) (*models.Order, error) {
	co, err := s.prepare(ctx, req, models.PaymentCOD)
	if err != nil {
		return nil, err
	}

	order := s.newOrder(userID, "cod_"+compactID(), models.PaymentCOD, models.StatusPending, co)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.log.Info("cod order placed",
		"order_id", order.OrderID,
		"user_id", userID,
		"amount", order.Amount.String(),
		"items_count", len(order.Items),
	)
	s.placed(ctx, order)
	return order, nil
}

// PaymentOrder is an online order waiting for the customer to pay.
type PaymentOrder struct {
	Order       *models.Order
	AmountMinor int64
	KeyID       string
}

// CreatePaymentOrder opens a gateway order for the server-computed total and
// records it as created.
func (s *OrderService) CreatePaymentOrder(ctx context.Context, userID string, req models.CheckoutRequest) (*PaymentOrder, error) {
	co, err := s.prepare(ctx, req, models.PaymentOnline)
	if err != nil {
		return nil, err
	}

	gw, err := s.gateway.CreateOrder(ctx, co.totals.GrandTotal, s.currency, payment.Receipt())
	if err != nil {
		s.log.Error("payment gateway order creation failed", "user_id", userID, "error", err)
		return nil, apperr.External("Unable to start payment, please try again", err)
	}

	order := s.newOrder(userID, gw.ID, models.PaymentOnline, models.StatusCreated, co)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.log.Info("payment order created",
		"order_id", order.OrderID,
		"user_id", userID,
		"amount", order.Amount.String(),
	)
	return &PaymentOrder{Order: order, AmountMinor: gw.Amount, KeyID: s.gateway.KeyID()}, nil
}

// VerifyPayment checks the gateway signature and marks the order paid or
// failed. Only the order's owner may verify it.
func (s *OrderService) VerifyPayment(ctx context.Context, userID string, req models.VerifyPaymentRequest) (*models.Order, error) {
	order, err := s.getOrder(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		s.log.Warn("payment verification by non-owner", "order_id", order.OrderID, "user_id", userID)
		return nil, ErrNotOrderOwner
	}

	switch order.Status {
	case models.StatusCreated:
	case models.StatusPaid:
		if samePayment(order, req.PaymentID) {
			return order, nil
		}
		return nil, ErrNotAwaitingPayment
	default:
		return nil, ErrNotAwaitingPayment
	}

	if !payment.VerifySignature(s.paymentSecret, order.OrderID, req.PaymentID, req.Signature) {
		s.log.Warn("payment signature mismatch", "order_id", order.OrderID, "payment_id", req.PaymentID)
		_, err := s.orders.UpdateStatus(ctx, repository.StatusChange{
			OrderID: order.OrderID,
			From:    models.StatusCreated,
			To:      models.StatusFailed,
			At:      s.now().UTC(),
		})
		if err != nil {
			s.log.Error("failed to mark order failed", "order_id", order.OrderID, "error", err)
		}
		return nil, ErrInvalidSignature
	}

	paymentID := req.PaymentID
	paid, err := s.orders.UpdateStatus(ctx, repository.StatusChange{
		OrderID:   order.OrderID,
		From:      models.StatusCreated,
		To:        models.StatusPaid,
		PaymentID: &paymentID,
		At:        s.now().UTC(),
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		// another verification won the race
		current, gerr := s.getOrder(ctx, order.OrderID)
		if gerr != nil {
			return nil, gerr
		}
		if current.Status == models.StatusPaid && samePayment(current, req.PaymentID) {
			return current, nil
		}
		return nil, ErrNotAwaitingPayment
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}

	s.log.Info("payment verified",
		"order_id", paid.OrderID,
		"payment_id", paymentID,
		"amount", paid.Amount.String(),
	)
	s.placed(ctx, paid)
	return paid, nil
}

func samePayment(o *models.Order, paymentID string) bool {
	return o.PaymentID != nil && *o.PaymentID == paymentID
}

// placed runs the one-time side effects of a successful order. Failures are
// logged; the order stays the source of truth.
func (s *OrderService) placed(ctx context.Context, o *models.Order) {
	ctx = context.WithoutCancel(ctx)

	for _, it := range o.Items {
		if err := s.products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			s.log.Error("stock decrement failed",
				"order_id", o.OrderID,
				"product_id", it.ProductID,
				"quantity", it.Quantity,
				"error", err,
			)
		}
	}

	if o.CouponCode != nil {
		if err := s.coupons.IncrementUsage(ctx, *o.CouponCode); err != nil {
			s.log.Error("coupon usage increment failed",
				"order_id", o.OrderID,
				"coupon", *o.CouponCode,
				"error", err,
			)
		}
	}

	if s.notifier != nil {
		s.notifier.OrderPlaced(o)
	}
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders []models.Order
	Page   int
	Limit  int
	Total  int64
}

// Pages is the number of pages at the current limit.
func (p OrderPage) Pages() int64 {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + int64(p.Limit) - 1) / int64(p.Limit)
}

// ListOrders returns a page of orders for the admin dashboard, or of one
// customer's orders when f.UserID is set.
func (s *OrderService) ListOrders(ctx context.Context, f models.OrderFilter) (*OrderPage, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: orders, Page: f.Page, Limit: f.Limit, Total: total}, nil
}

// GetOrder returns an order to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string, admin bool) (*models.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !admin && o.UserID != userID {
		// do not reveal that someone else's order exists
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// UpdateStatus is the admin fulfilment transition.
func (s *OrderService) UpdateStatus(ctx context.Context, req models.UpdateOrderStatusRequest) (*models.Order, error) {
	if !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	o, err := s.getOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanAdminTransition(req.Status) {
		return nil, apperr.Validation(fmt.Sprintf("Cannot change order status from %s to %s", o.Status, req.Status))
	}

	updated, err := s.orders.UpdateStatus(ctx, repository.StatusChange{
		OrderID: o.OrderID,
		From:    o.Status,
		To:      req.Status,
		At:      s.now().UTC(),
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		return nil, ErrConcurrentUpdate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.log.Info("order status updated", "order_id", o.OrderID, "from", o.Status, "to", req.Status)
	return updated, nil
}

func (s *OrderService) getOrder(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func compactID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
