// Package pricing computes cart and order totals. Every function here is pure
// so the cart preview and the charged amount can never disagree.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Line is one priced line of a cart or order.
type Line struct {
	Price          decimal.Decimal
	Quantity       int
	ShippingCharge decimal.Decimal
}

// Discount is the part of a coupon the calculator needs.
type Discount struct {
	Type  models.DiscountType
	Value decimal.Decimal
}

// Totals is the breakdown shown to the customer and charged at checkout.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// DiscountAmount applies a discount rule to orderValue. Percentages round
// down to a whole currency unit. The result is clamped to [0, orderValue].
func DiscountAmount(d Discount, orderValue decimal.Decimal) decimal.Decimal {
	if !orderValue.IsPositive() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch d.Type {
	case models.DiscountPercentage:
		amount = orderValue.Mul(d.Value).Div(hundred).Floor()
	case models.DiscountFixed:
		amount = d.Value
	default:
		return decimal.Zero
	}

	return clamp(amount, orderValue)
}

// ComputeTotal totals lines and applies an optional discount against the
// subtotal. Shipping is charged per line, not per order.
func ComputeTotal(lines []Line, discount *Discount) Totals {
	subtotal := decimal.Zero
	shipping := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		if l.ShippingCharge.IsPositive() {
			shipping = shipping.Add(l.ShippingCharge)
		}
	}

	off := decimal.Zero
	if discount != nil {
		off = clamp(DiscountAmount(*discount, subtotal), subtotal)
	}

	grand := subtotal.Sub(off).Add(shipping)
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return Totals{
		Subtotal:   subtotal,
		Shipping:   shipping,
		Discount:   off,
		GrandTotal: grand,
	}
}

// DiscountFor extracts the discount rule of a coupon; nil yields nil.
func DiscountFor(c *models.Coupon) *Discount {
	if c == nil {
		return nil
	}
	return &Discount{Type: c.DiscountType, Value: c.DiscountValue}
}

// CartLines adapts cart items to calculator lines.
func CartLines(items []models.CartItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{Price: it.Price, Quantity: it.Quantity, ShippingCharge: it.ShippingCharge}
	}
	return lines
}

// OrderLines adapts order snapshot items to calculator lines.
func OrderLines(items []models.OrderItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{Price: it.Price, Quantity: it.Quantity, ShippingCharge: it.ShippingCharge}
	}
	return lines
}

func clamp(amount, ceiling decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(ceiling) {
		return ceiling
	}
	return amount
}
