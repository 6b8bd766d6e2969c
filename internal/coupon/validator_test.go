package coupon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/handmade-storefront/internal/apperr"
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/repository"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// countingStore wraps a repository and counts store lookups
type countingStore struct {
	*repository.InMemoryCouponRepository
	finds int32
}

func (s *countingStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	atomic.AddInt32(&s.finds, 1)
	return s.InMemoryCouponRepository.FindByCode(ctx, code)
}

func setupStore() *countingStore {
	return &countingStore{InMemoryCouponRepository: repository.NewInMemoryCouponRepository(
		models.Coupon{ID: "c1", Code: "WELCOME10", DiscountType: models.DiscountPercentage, DiscountValue: dec("10"), MinOrderValue: dec("500"), IsActive: true},
		models.Coupon{ID: "c2", Code: "FLAT100", DiscountType: models.DiscountFixed, DiscountValue: dec("100"), IsActive: true},
		models.Coupon{ID: "c3", Code: "SLEEPY", DiscountType: models.DiscountFixed, DiscountValue: dec("50"), IsActive: false},
		models.Coupon{ID: "c4", Code: "DIWALI", DiscountType: models.DiscountPercentage, DiscountValue: dec("20"), IsActive: true, ValidUntil: timePtr(fixedNow.Add(-time.Hour))},
		models.Coupon{ID: "c5", Code: "ONCE", DiscountType: models.DiscountFixed, DiscountValue: dec("30"), IsActive: true, MaxUses: intPtr(1), UsageCount: 1},
		models.Coupon{ID: "c6", Code: "EDGE", DiscountType: models.DiscountFixed, DiscountValue: dec("30"), IsActive: true, ValidUntil: timePtr(fixedNow)},
		models.Coupon{ID: "c7", Code: "LATER", DiscountType: models.DiscountFixed, DiscountValue: dec("30"), IsActive: true, ValidUntil: timePtr(fixedNow.Add(time.Nanosecond)), MaxUses: intPtr(3), UsageCount: 2},
	)}
}

func newTestValidator(store Store) *Validator {
	return NewValidator(store, WithClock(func() time.Time { return fixedNow }))
}

func TestValidator_Validate(t *testing.T) {
	v := newTestValidator(setupStore())

	tests := []struct {
		name       string
		code       string
		orderValue string
		wantErr    error
		wantAmount string
	}{
		{name: "percentage coupon floors the discount", code: "WELCOME10", orderValue: "748", wantAmount: "74"},
		{name: "case insensitive with whitespace", code: "  welcome10 ", orderValue: "748", wantAmount: "74"},
		{name: "fixed coupon", code: "FLAT100", orderValue: "300", wantAmount: "100"},
		{name: "fixed coupon clamped to order value", code: "FLAT100", orderValue: "60", wantAmount: "60"},
		{name: "unknown code", code: "NOPE", orderValue: "748", wantErr: ErrNotFound},
		{name: "empty code", code: "   ", orderValue: "748", wantErr: ErrNotFound},
		{name: "inactive", code: "SLEEPY", orderValue: "748", wantErr: ErrInactive},
		{name: "expired", code: "DIWALI", orderValue: "748", wantErr: ErrExpired},
		{name: "expiry exactly now is expired", code: "EDGE", orderValue: "748", wantErr: ErrExpired},
		{name: "expiry one nanosecond ahead is valid", code: "LATER", orderValue: "748", wantAmount: "30"},
		{name: "usage exceeded", code: "ONCE", orderValue: "748", wantErr: ErrUsageExceeded},
		{name: "below minimum", code: "WELCOME10", orderValue: "499.99", wantErr: ErrBelowMinimum},
		{name: "at minimum", code: "WELCOME10", orderValue: "500", wantAmount: "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(context.Background(), tt.code, dec(tt.orderValue))

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsRejection(err))
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.True(t, got.DiscountAmount.Equal(dec(tt.wantAmount)), "discount = %s, want %s", got.DiscountAmount, tt.wantAmount)
			assert.Equal(t, Normalize(tt.code), got.Code)
		})
	}
}

func TestValidator_BelowMinimumMessageIncludesMinimum(t *testing.T) {
	v := newTestValidator(setupStore())

	_, err := v.Validate(context.Background(), "WELCOME10", dec("100"))

	var minErr *MinimumOrderError
	require.True(t, errors.As(err, &minErr))
	assert.True(t, minErr.Minimum.Equal(dec("500")))
	assert.Contains(t, err.Error(), "500.00")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestValidator_ErrorKinds(t *testing.T) {
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(ErrNotFound))
	for _, err := range []error{ErrInactive, ErrExpired, ErrUsageExceeded, ErrBelowMinimum} {
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), err.Error())
	}
}

func TestValidator_ValidateHasNoSideEffects(t *testing.T) {
	store := setupStore()
	v := newTestValidator(store)

	for i := 0; i < 5; i++ {
		_, err := v.Validate(context.Background(), "LATER", dec("748"))
		require.NoError(t, err)
	}

	c, err := store.FindByCode(context.Background(), "LATER")
	require.NoError(t, err)
	assert.Equal(t, 2, c.UsageCount)
}

func TestValidator_IndexShortCircuitsUnknownCodes(t *testing.T) {
	store := setupStore()
	v := NewValidator(store, WithClock(func() time.Time { return fixedNow }), WithMissRate(0, 0))
	require.NoError(t, v.LoadIndex(context.Background()))

	_, err := v.Validate(context.Background(), "DEFINITELYNOTACODE", dec("748"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 0, atomic.LoadInt32(&store.finds), "unknown code should not reach the store")

	_, err = v.Validate(context.Background(), "flat100", dec("748"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&store.finds))
}

func TestValidator_RememberAddsNewCodes(t *testing.T) {
	store := setupStore()
	v := newTestValidator(store)
	require.NoError(t, v.LoadIndex(context.Background()))

	require.NoError(t, store.Create(context.Background(), &models.Coupon{ID: "c8", Code: "FRESH", DiscountType: models.DiscountFixed, DiscountValue: dec("5"), IsActive: true}))
	v.Remember("fresh")

	got, err := v.Validate(context.Background(), "FRESH", dec("100"))
	require.NoError(t, err)
	assert.True(t, got.DiscountAmount.Equal(dec("5")))
}

func TestValidator_FindsCodesCreatedElsewhere(t *testing.T) {
	store := setupStore()
	v := newTestValidator(store)
	require.NoError(t, v.LoadIndex(context.Background()))

	// written straight to the shared store, never passed to Remember
	require.NoError(t, store.Create(context.Background(), &models.Coupon{ID: "c9", Code: "ELSEWHERE", DiscountType: models.DiscountFixed, DiscountValue: dec("25"), IsActive: true}))

	got, err := v.Validate(context.Background(), "elsewhere", dec("300"))
	require.NoError(t, err)
	assert.Equal(t, "c9", got.ID)
	assert.True(t, got.DiscountAmount.Equal(dec("25")))

	stats := v.GetStats()
	assert.Equal(t, uint(8), stats["indexed_codes"])
	assert.Equal(t, uint(1), stats["recovered_codes"])

	// now indexed, so no further miss budget is spent on it
	_, err = v.Validate(context.Background(), "ELSEWHERE", dec("300"))
	require.NoError(t, err)
	assert.Equal(t, uint(1), v.GetStats()["recovered_codes"])
}

func TestValidator_MissBudget(t *testing.T) {
	store := setupStore()
	v := NewValidator(store, WithClock(func() time.Time { return fixedNow }), WithMissRate(0, 1))
	require.NoError(t, v.LoadIndex(context.Background()))

	_, err := v.Validate(context.Background(), "NOPE1", dec("748"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, atomic.LoadInt32(&store.finds))

	_, err = v.Validate(context.Background(), "NOPE2", dec("748"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, atomic.LoadInt32(&store.finds), "budget spent, miss answered from the index")

	_, err = v.Validate(context.Background(), "FLAT100", dec("748"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&store.finds))
}

func TestValidator_GetStats(t *testing.T) {
	v := newTestValidator(setupStore())

	stats := v.GetStats()
	assert.Equal(t, false, stats["index_loaded"])

	require.NoError(t, v.LoadIndex(context.Background()))
	stats = v.GetStats()
	assert.Equal(t, true, stats["index_loaded"])
	assert.Equal(t, uint(7), stats["indexed_codes"])
	rate, ok := stats["estimated_false_positive_rate"].(float64)
	require.True(t, ok)
	assert.Less(t, rate, 0.01)
}

type failingStore struct{}

func (failingStore) FindByCode(context.Context, string) (*models.Coupon, error) {
	return nil, errors.New("connection reset")
}

func (failingStore) ListCodes(context.Context) ([]string, error) {
	return nil, errors.New("connection reset")
}

func TestValidator_StoreFailureIsNotARejection(t *testing.T) {
	v := newTestValidator(failingStore{})

	_, err := v.Validate(context.Background(), "WELCOME10", dec("748"))
	require.Error(t, err)
	assert.False(t, IsRejection(err))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	assert.Error(t, v.LoadIndex(context.Background()))
}
