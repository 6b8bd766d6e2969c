package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewInMemoryProductRepository creates a new in-memory product repository with seed data
func NewInMemoryProductRepository() *InMemoryProductRepository {
	seeded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	price := decimal.RequireFromString
	sale := func(s string) *decimal.Decimal {
		v := price(s)
		return &v
	}

	seed := []models.Product{
		{ID: "1", Name: "Hand-thrown Ceramic Mug", Category: "Pottery", Price: price("299"), Stock: 25, ShippingCharge: price("0"), CODAvailable: true},
		{ID: "2", Name: "Block-print Cotton Tote", Category: "Textiles", Price: price("150"), Stock: 40, ShippingCharge: price("40"), CODAvailable: true},
		{ID: "3", Name: "Macrame Wall Hanging", Category: "Decor", Price: price("899"), SalePrice: sale("749"), Stock: 8, ShippingCharge: price("60"), CODAvailable: true},
		{ID: "4", Name: "Beeswax Candle Set", Category: "Candles", Price: price("450"), Stock: 30, ShippingCharge: price("40"), CODAvailable: true},
		{ID: "5", Name: "Crochet Plant Hanger", Category: "Decor", Price: price("349"), Stock: 15, ShippingCharge: price("0"), CODAvailable: true},
		{ID: "6", Name: "Hand-stitched Leather Journal", Category: "Stationery", Price: price("1299"), Stock: 5, ShippingCharge: price("80"), CODAvailable: false},
		{ID: "7", Name: "Terracotta Planter", Category: "Pottery", Price: price("499"), Stock: 12, ShippingCharge: price("100"), CODAvailable: true},
		{ID: "8", Name: "Embroidered Cushion Cover", Category: "Textiles", Price: price("599"), SalePrice: sale("499"), Stock: 20, ShippingCharge: price("40"), CODAvailable: true},
		{ID: "9", Name: "Handmade Soap Trio", Category: "Bath", Price: price("240"), Stock: 50, ShippingCharge: price("0"), CODAvailable: true},
		{ID: "10", Name: "Silver Filigree Earrings", Category: "Jewellery", Price: price("1899"), Stock: 3, ShippingCharge: price("0"), CODAvailable: false},
	}

	products := make(map[string]models.Product, len(seed))
	for _, p := range seed {
		p.CreatedAt = seeded
		p.UpdatedAt = seeded
		products[p.ID] = p
	}

	return &InMemoryProductRepository{
		products: products,
	}
}

// GetAll returns all products ordered by id
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool {
		if len(products[i].ID) != len(products[j].ID) {
			return len(products[i].ID) < len(products[j].ID)
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Create stores a new product
func (r *InMemoryProductRepository) Create(ctx context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[p.ID] = *p
	return nil
}

// DecrementStock removes qty units under the write lock
func (r *InMemoryProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, exists := r.products[id]
	if !exists {
		return ErrProductNotFound
	}
	if product.Stock < qty {
		return ErrInsufficientStock
	}
	product.Stock -= qty
	product.UpdatedAt = time.Now().UTC()
	r.products[id] = product
	return nil
}
