package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// InMemoryCouponRepository implements CouponRepository for tests and local runs.
type InMemoryCouponRepository struct {
	mu      sync.RWMutex
	coupons map[string]models.Coupon
}

func NewInMemoryCouponRepository(seed ...models.Coupon) *InMemoryCouponRepository {
	r := &InMemoryCouponRepository{coupons: make(map[string]models.Coupon, len(seed))}
	for _, c := range seed {
		r.coupons[c.Code] = c
	}
	return r
}

func (r *InMemoryCouponRepository) Create(ctx context.Context, c *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.coupons[c.Code]; exists {
		return ErrDuplicateCoupon
	}
	r.coupons[c.Code] = *c
	return nil
}

func (r *InMemoryCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.coupons[code]
	if !exists {
		return nil, ErrCouponNotFound
	}
	return &c, nil
}

func (r *InMemoryCouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Coupon, 0, len(r.coupons))
	for _, c := range r.coupons {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryCouponRepository) ListCodes(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.coupons))
	for code := range r.coupons {
		out = append(out, code)
	}
	return out, nil
}

func (r *InMemoryCouponRepository) SetActive(ctx context.Context, code string, active bool) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.coupons[code]
	if !exists {
		return nil, ErrCouponNotFound
	}
	c.IsActive = active
	r.coupons[code] = c
	return &c, nil
}

func (r *InMemoryCouponRepository) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.coupons[code]; !exists {
		return ErrCouponNotFound
	}
	delete(r.coupons, code)
	return nil
}

func (r *InMemoryCouponRepository) IncrementUsage(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.coupons[code]
	if !exists {
		return ErrCouponNotFound
	}
	if c.MaxUses != nil && c.UsageCount >= *c.MaxUses {
		return ErrCouponExhausted
	}
	c.UsageCount++
	r.coupons[code] = c
	return nil
}

// InMemoryOrderRepository implements OrderRepository for tests and local runs.
type InMemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{orders: make(map[string]models.Order)}
}

func (r *InMemoryOrderRepository) Create(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.OrderID]; exists {
		return ErrDuplicateOrder
	}
	r.orders[o.OrderID] = copyOrder(*o)
	return nil
}

func (r *InMemoryOrderRepository) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, exists := r.orders[orderID]
	if !exists {
		return nil, ErrOrderNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *InMemoryOrderRepository) List(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		matched = append(matched, copyOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].OrderID > matched[j].OrderID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page, limit := normalizePage(f)
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *InMemoryOrderRepository) UpdateStatus(ctx context.Context, c StatusChange) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, exists := r.orders[c.OrderID]
	if !exists {
		return nil, ErrOrderNotFound
	}
	if o.Status != c.From {
		return nil, ErrStatusConflict
	}
	o.Status = c.To
	if c.PaymentID != nil {
		id := *c.PaymentID
		o.PaymentID = &id
	}
	o.UpdatedAt = c.At
	r.orders[c.OrderID] = o

	out := copyOrder(o)
	return &out, nil
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

// InMemoryCartRepository implements CartRepository for tests and local runs.
type InMemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]models.Cart
}

func NewInMemoryCartRepository() *InMemoryCartRepository {
	return &InMemoryCartRepository{carts: make(map[string]models.Cart)}
}

func (r *InMemoryCartRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.carts[userID]
	if !exists {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	c.Items = append([]models.CartItem{}, c.Items...)
	return &c, nil
}

func (r *InMemoryCartRepository) Save(ctx context.Context, c *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *c
	saved.Items = append([]models.CartItem{}, c.Items...)
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now().UTC()
	}
	r.carts[c.UserID] = saved
	return nil
}

// MemoryPinger is always healthy.
type MemoryPinger struct{}

func (MemoryPinger) Ping(ctx context.Context) error { return nil }
