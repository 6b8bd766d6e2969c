package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a snapshot of a product taken when it was put in the cart.
type CartItem struct {
	ID             string          `json:"id" bson:"id"`
	Name           string          `json:"name" bson:"name"`
	Price          decimal.Decimal `json:"price" bson:"price"`
	Quantity       int             `json:"quantity" bson:"quantity"`
	Image          string          `json:"image,omitempty" bson:"image,omitempty"`
	ShippingCharge decimal.Decimal `json:"shippingCharge" bson:"shippingCharge"`
	CODAvailable   bool            `json:"codAvailable" bson:"codAvailable"`
}

// Cart is the server-side record of a signed-in customer's cart.
type Cart struct {
	UserID    string     `json:"userId" bson:"_id"`
	Items     []CartItem `json:"items" bson:"items"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// AddCartItemRequest adds quantity of a product to the cart.
type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100"`
}

// SetCartQuantityRequest sets an absolute quantity; zero removes the line.
type SetCartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=100"`
}

// MergeCartRequest carries a guest cart kept in browser storage.
type MergeCartRequest struct {
	Items []GuestCartItem `json:"items" validate:"max=100,dive"`
}

// GuestCartItem is the part of a guest cart line the server accepts; prices
// are re-read from the catalog.
type GuestCartItem struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1,max=100"`

	// Sent by the browser ledger, ignored by the server.
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Image          string          `json:"image"`
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	CODAvailable   bool            `json:"codAvailable"`
}
