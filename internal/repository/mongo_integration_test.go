package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// TestMongoRepositories_Integration runs against a real MongoDB.
// It is skipped unless MONGO_URI is set.
func TestMongoRepositories_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mongo integration test in short mode")
	}
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("skipping mongo integration test: MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := "storefront_test_" + uuid.NewString()[:8]
	store, err := ConnectMongo(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		_ = store.Close(context.Background())
	})
	require.NoError(t, store.EnsureIndexes(ctx))

	t.Run("product stock decrement is guarded", func(t *testing.T) {
		products := store.Products()
		require.NoError(t, products.Create(ctx, &models.Product{
			ID: "p1", Name: "Mug", Price: decimal.NewFromInt(299), Stock: 2, CreatedAt: time.Now().UTC(),
		}))

		require.NoError(t, products.DecrementStock(ctx, "p1", 2))
		assert.ErrorIs(t, products.DecrementStock(ctx, "p1", 1), ErrInsufficientStock)
		assert.ErrorIs(t, products.DecrementStock(ctx, "nope", 1), ErrProductNotFound)

		p, err := products.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 0, p.Stock)
		assert.True(t, p.Price.Equal(decimal.NewFromInt(299)))
	})

	t.Run("coupon code is unique and usage capped", func(t *testing.T) {
		coupons := store.Coupons()
		maxUses := 1
		c := &models.Coupon{ID: uuid.NewString(), Code: "ONCE", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(50), IsActive: true, MaxUses: &maxUses}
		require.NoError(t, coupons.Create(ctx, c))

		dup := *c
		dup.ID = uuid.NewString()
		assert.ErrorIs(t, coupons.Create(ctx, &dup), ErrDuplicateCoupon)

		require.NoError(t, coupons.IncrementUsage(ctx, "ONCE"))
		assert.ErrorIs(t, coupons.IncrementUsage(ctx, "ONCE"), ErrCouponExhausted)

		codes, err := coupons.ListCodes(ctx)
		require.NoError(t, err)
		assert.Contains(t, codes, "ONCE")
	})

	t.Run("order status update is conditional", func(t *testing.T) {
		orders := store.Orders()
		require.NoError(t, orders.Create(ctx, &models.Order{
			OrderID: "order_it_1", UserID: "u1", Status: models.StatusCreated, Amount: decimal.NewFromInt(788), CreatedAt: time.Now().UTC(),
		}))

		payID := "pay_1"
		o, err := orders.UpdateStatus(ctx, StatusChange{OrderID: "order_it_1", From: models.StatusCreated, To: models.StatusPaid, PaymentID: &payID, At: time.Now().UTC()})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaid, o.Status)

		_, err = orders.UpdateStatus(ctx, StatusChange{OrderID: "order_it_1", From: models.StatusCreated, To: models.StatusFailed, At: time.Now().UTC()})
		assert.ErrorIs(t, err, ErrStatusConflict)

		list, total, err := orders.List(ctx, models.OrderFilter{Status: models.StatusPaid})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, list, 1)
	})

	t.Run("cart upserts per user", func(t *testing.T) {
		carts := store.Carts()
		empty, err := carts.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, empty.Items)

		require.NoError(t, carts.Save(ctx, &models.Cart{UserID: "u1", Items: []models.CartItem{{ID: "p1", Quantity: 1, Price: decimal.NewFromInt(10)}}}))
		got, err := carts.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, got.Items, 1)
	})
}
