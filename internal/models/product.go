package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, the way storefront clients send them.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog entry. Carts and orders hold snapshots of it, never
// references.
type Product struct {
	ID             string           `json:"id" bson:"_id"`
	Name           string           `json:"name" bson:"name"`
	Description    string           `json:"description,omitempty" bson:"description,omitempty"`
	Category       string           `json:"category" bson:"category"`
	Price          decimal.Decimal  `json:"price" bson:"price"`
	SalePrice      *decimal.Decimal `json:"salePrice,omitempty" bson:"salePrice,omitempty"`
	Stock          int              `json:"stock" bson:"stock"`
	ShippingCharge decimal.Decimal  `json:"shippingCharge" bson:"shippingCharge"`
	CODAvailable   bool             `json:"codAvailable" bson:"codAvailable"`
	Images         []string         `json:"images,omitempty" bson:"images,omitempty"`
	CreatedAt      time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// EffectivePrice is the sale price when one is set below the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.IsPositive() && p.SalePrice.LessThan(p.Price) {
		return *p.SalePrice
	}
	return p.Price
}

// Image returns the primary image, or "" when the product has none.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// CreateProductRequest is the admin payload for a new catalog entry.
type CreateProductRequest struct {
	Name           string           `json:"name" validate:"required,max=200"`
	Description    string           `json:"description" validate:"max=5000"`
	Category       string           `json:"category" validate:"max=100"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"salePrice"`
	Stock          int              `json:"stock" validate:"min=0"`
	ShippingCharge decimal.Decimal  `json:"shippingCharge"`
	CODAvailable   bool             `json:"codAvailable"`
	Images         []string         `json:"images" validate:"dive,url"`
}
