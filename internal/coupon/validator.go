package coupon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/pricing"
	"github.com/Lixing-Zhang/handmade-storefront/internal/repository"
)

const (
	// index sizing, at least twice the codes present at load time
	minIndexCapacity  = 1024
	falsePositiveRate = 0.001

	// store reads allowed for codes the index has never seen
	defaultMissRate  = 20
	defaultMissBurst = 40
)

// Store is the part of the coupon repository the validator reads.
type Store interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListCodes(ctx context.Context) ([]string, error)
}

// Validator checks coupon codes against the store. A bloom filter of known
// codes answers most unknown codes without a store round-trip. Codes the
// filter has not seen, such as ones created by another instance, are still
// read from the store at a bounded rate and learned when found.
type Validator struct {
	store  Store
	now    func() time.Time
	misses *rate.Limiter

	mu       sync.RWMutex
	index     *bloom.BloomFilter
	indexed   uint
	capacity  uint
	recovered uint
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// WithMissRate bounds how many index misses per second are checked against
// the store. WithMissRate(0, 0) trusts the index completely.
func WithMissRate(limit rate.Limit, burst int) Option {
	return func(v *Validator) {
		v.misses = rate.NewLimiter(limit, burst)
	}
}

// NewValidator creates a new coupon validator
func NewValidator(store Store, opts ...Option) *Validator {
	v := &Validator{
		store:  store,
		now:    time.Now,
		misses: rate.NewLimiter(defaultMissRate, defaultMissBurst),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Normalize trims and uppercases a code the way it is stored.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LoadIndex builds the code index from every coupon in the store. Until it
// has run, every lookup goes to the store.
func (v *Validator) LoadIndex(ctx context.Context) error {
	codes, err := v.store.ListCodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list coupon codes: %w", err)
	}

	capacity := uint(minIndexCapacity)
	for capacity < uint(len(codes))*2 {
		capacity *= 2
	}

	filter := bloom.NewWithEstimates(capacity, falsePositiveRate)
	for _, code := range codes {
		filter.AddString(Normalize(code))
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.index = filter
	v.indexed = uint(len(codes))
	v.capacity = capacity
	v.recovered = 0

	return nil
}

// Remember adds a newly created code to the index.
func (v *Validator) Remember(code string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.remember(Normalize(code))
}

func (v *Validator) remember(code string) {
	if v.index == nil {
		return
	}
	v.index.AddString(code)
	v.indexed++
}

// mayExist is false only when the code is certainly unknown.
func (v *Validator) mayExist(code string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.index == nil {
		return true
	}
	return v.index.TestString(code)
}

// Lookup finds the coupon for code, case-insensitively.
func (v *Validator) Lookup(ctx context.Context, code string) (*models.Coupon, error) {
	code = Normalize(code)
	if code == "" {
		return nil, ErrNotFound
	}

	known := v.mayExist(code)
	if !known && !v.misses.Allow() {
		return nil, ErrNotFound
	}

	c, err := v.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}

	if !known {
		v.mu.Lock()
		v.remember(code)
		v.recovered++
		v.mu.Unlock()
	}
	return c, nil
}

// Check applies the coupon rules to orderValue at the current instant.
// Rules are checked in a fixed order: active, expiry, usage, minimum.
func (v *Validator) Check(c *models.Coupon, orderValue decimal.Decimal) error {
	if !c.IsActive {
		return ErrInactive
	}
	// expiry is exclusive: a coupon valid until T is expired at T
	if c.ValidUntil != nil && !v.now().Before(*c.ValidUntil) {
		return ErrExpired
	}
	if c.MaxUses != nil && c.UsageCount >= *c.MaxUses {
		return ErrUsageExceeded
	}
	if orderValue.LessThan(c.MinOrderValue) {
		return &MinimumOrderError{Minimum: c.MinOrderValue}
	}
	return nil
}

// Validate looks up code and checks it against orderValue. It has no side
// effects; usage is only counted when an order is placed.
func (v *Validator) Validate(ctx context.Context, code string, orderValue decimal.Decimal) (*models.CouponValidation, error) {
	c, err := v.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := v.Check(c, orderValue); err != nil {
		return nil, err
	}

	return &models.CouponValidation{
		ID:             c.ID,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		DiscountAmount: pricing.DiscountAmount(*pricing.DiscountFor(c), orderValue),
	}, nil
}

// GetStats returns statistics about the code index
func (v *Validator) GetStats() map[string]interface{} {
	v.mu.RLock()
	defer v.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["index_loaded"] = v.index != nil
	stats["indexed_codes"] = v.indexed
	stats["index_capacity"] = v.capacity
	stats["recovered_codes"] = v.recovered

	if v.index != nil {
		stats["index_bits"] = v.index.Cap()
		stats["hash_functions"] = v.index.K()
		stats["estimated_false_positive_rate"] = falsePositive(v.index.Cap(), v.index.K(), v.indexed)
	}

	return stats
}

// falsePositive is the standard (1 - e^(-kn/m))^k estimate.
func falsePositive(m, k, n uint) float64 {
	if m == 0 {
		return 1
	}
	return math.Pow(1-math.Exp(-float64(k)*float64(n)/float64(m)), float64(k))
}
