package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusCreated    OrderStatus = "created"
	StatusPaid       OrderStatus = "paid"
	StatusFailed     OrderStatus = "failed"
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var orderStatuses = map[OrderStatus]bool{
	StatusCreated:    true,
	StatusPaid:       true,
	StatusFailed:     true,
	StatusPending:    true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

// fulfilment rank; a move is forward when the rank grows.
var fulfilmentRank = map[OrderStatus]int{
	StatusPaid:       1,
	StatusPending:    1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// Valid reports whether s is one of the fixed statuses.
func (s OrderStatus) Valid() bool {
	return orderStatuses[s]
}

// Terminal reports whether no further transition is possible from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusFailed || s == StatusCancelled
}

// CanAdminTransition reports whether an admin may move an order from s to
// next. Payment outcomes (paid, failed) and the entry states are never admin
// targets.
func (s OrderStatus) CanAdminTransition(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() || s == next {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch next {
	case StatusProcessing, StatusShipped, StatusDelivered:
	default:
		return false
	}
	from, ok := fulfilmentRank[s]
	if !ok {
		// created orders have not been paid for
		return false
	}
	return fulfilmentRank[next] > from
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCOD    PaymentMethod = "cod"
)

// OrderItem is the frozen copy of a product taken at checkout.
type OrderItem struct {
	ProductID      string          `json:"productId" bson:"productId"`
	Name           string          `json:"name" bson:"name"`
	Price          decimal.Decimal `json:"price" bson:"price"`
	Quantity       int             `json:"quantity" bson:"quantity"`
	Image          string          `json:"image,omitempty" bson:"image,omitempty"`
	ShippingCharge decimal.Decimal `json:"shippingCharge" bson:"shippingCharge"`
}

// CustomerInfo is the contact and delivery block of an order.
type CustomerInfo struct {
	Name    string `json:"name" bson:"name" validate:"required,max=120"`
	Email   string `json:"email" bson:"email" validate:"required,email"`
	Phone   string `json:"phone" bson:"phone" validate:"required,min=7,max=20"`
	Address string `json:"address" bson:"address" validate:"required,max=500"`
	Notes   string `json:"notes,omitempty" bson:"notes,omitempty" validate:"max=1000"`
}

// Order is the persisted order document. OrderID is the gateway order id for
// online orders and a generated id for COD orders.
type Order struct {
	OrderID         string           `json:"orderId" bson:"_id"`
	UserID          string           `json:"userId" bson:"userId"`
	PaymentID       *string          `json:"paymentId" bson:"paymentId"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod" bson:"paymentMethod"`
	Amount          decimal.Decimal  `json:"amount" bson:"amount"`
	Subtotal        decimal.Decimal  `json:"subtotal" bson:"subtotal"`
	ShippingCharges decimal.Decimal  `json:"shippingCharges" bson:"shippingCharges"`
	Currency        string           `json:"currency" bson:"currency"`
	Status          OrderStatus      `json:"status" bson:"status"`
	Items           []OrderItem      `json:"items" bson:"items"`
	Customer        CustomerInfo     `json:"customer" bson:"customer"`
	CouponCode      *string          `json:"couponCode" bson:"couponCode"`
	DiscountAmount  *decimal.Decimal `json:"discountAmount" bson:"discountAmount"`
	CreatedAt       time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// CheckoutItem names a product and quantity; everything else is read from
// the catalog. Cart lines posted as-is carry the product id in ID.
type CheckoutItem struct {
	ProductID string `json:"productId" validate:"required_without=ID"`
	ID        string `json:"id" validate:"required_without=ProductID"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100"`

	// Browser snapshot fields, accepted but not trusted.
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Image          string          `json:"image"`
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	CODAvailable   bool            `json:"codAvailable"`
}

// Product returns the product id, preferring productId over id.
func (it CheckoutItem) Product() string {
	if it.ProductID != "" {
		return it.ProductID
	}
	return it.ID
}

// CheckoutRequest is the body of both checkout endpoints. Amount,
// ShippingCharges and DiscountAmount are the client's own computation and
// are only compared against the server's.
type CheckoutRequest struct {
	Amount          decimal.Decimal  `json:"amount"`
	Items           []CheckoutItem   `json:"items" validate:"required,min=1,max=50,dive"`
	Customer        CustomerInfo     `json:"customer"`
	ShippingCharges decimal.Decimal  `json:"shippingCharges"`
	CouponCode      string           `json:"couponCode" validate:"max=64"`
	DiscountAmount  *decimal.Decimal `json:"discountAmount"`
}

// VerifyPaymentRequest is the gateway callback relayed by the browser.
type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"gatewayOrderId" validate:"required"`
	PaymentID      string `json:"paymentId" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
}

// UpdateOrderStatusRequest is the admin body of PUT /orders.
type UpdateOrderStatusRequest struct {
	OrderID string      `json:"orderId" validate:"required"`
	Status  OrderStatus `json:"status" validate:"required"`
}

// OrderFilter narrows an order listing. Zero values mean "any".
type OrderFilter struct {
	Status OrderStatus
	UserID string
	Page   int
	Limit  int
}
