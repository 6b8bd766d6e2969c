package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrDuplicateCoupon   = errors.New("coupon code already exists")
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateOrder    = errors.New("order already exists")
	ErrStatusConflict    = errors.New("order status changed concurrently")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	// DecrementStock atomically removes qty units, failing with
	// ErrInsufficientStock rather than going below zero.
	DecrementStock(ctx context.Context, id string, qty int) error
}

// CouponRepository stores coupons keyed by their uppercase code.
type CouponRepository interface {
	Create(ctx context.Context, c *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	ListCodes(ctx context.Context) ([]string, error)
	SetActive(ctx context.Context, code string, active bool) (*models.Coupon, error)
	Delete(ctx context.Context, code string) error
	// IncrementUsage adds one use unless the coupon is already at its
	// limit, in which case it returns ErrCouponExhausted.
	IncrementUsage(ctx context.Context, code string) error
}

// StatusChange is a conditional order status update: it applies only while
// the order is still in From.
type StatusChange struct {
	OrderID   string
	From      models.OrderStatus
	To        models.OrderStatus
	PaymentID *string
	At        time.Time
}

// OrderRepository stores orders. Orders are never deleted.
type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	// List returns one page of orders, newest first, and the total number of
	// orders matching the filter.
	List(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error)
	// UpdateStatus applies c and returns the updated order. It fails with
	// ErrStatusConflict when the order is no longer in c.From.
	UpdateStatus(ctx context.Context, c StatusChange) (*models.Order, error)
}

// CartRepository stores one cart per user.
type CartRepository interface {
	// Get returns the user's cart, or an empty one if none was saved.
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, c *models.Cart) error
}

// Pinger reports store liveness for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func normalizePage(f models.OrderFilter) (page, limit int) {
	page, limit = f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
