// Package cart holds the cart ledger: a reducer over cart lines that the
// server applies the same way the browser does.
package cart

import (
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// MaxQuantity caps a single line.
const MaxQuantity = 100

// Add puts item into items. An existing line for the same product grows by
// item.Quantity and takes item's price snapshot.
func Add(items []models.CartItem, item models.CartItem) []models.CartItem {
	if item.Quantity <= 0 {
		return clone(items)
	}

	out := clone(items)
	for i := range out {
		if out[i].ID == item.ID {
			qty := out[i].Quantity + item.Quantity
			out[i] = item
			out[i].Quantity = capQuantity(qty)
			return out
		}
	}

	item.Quantity = capQuantity(item.Quantity)
	return append(out, item)
}

// SetQuantity sets the quantity of the line for id. A quantity of zero or
// less removes the line; a missing line is left alone.
func SetQuantity(items []models.CartItem, id string, quantity int) []models.CartItem {
	if quantity <= 0 {
		return Remove(items, id)
	}

	out := clone(items)
	for i := range out {
		if out[i].ID == id {
			out[i].Quantity = capQuantity(quantity)
		}
	}
	return out
}

// Refresh replaces the snapshot of an existing line, keeping its quantity.
func Refresh(items []models.CartItem, snapshot models.CartItem) []models.CartItem {
	out := clone(items)
	for i := range out {
		if out[i].ID == snapshot.ID {
			qty := out[i].Quantity
			out[i] = snapshot
			out[i].Quantity = qty
		}
	}
	return out
}

// Remove drops the line for id.
func Remove(items []models.CartItem, id string) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// Clear empties the cart.
func Clear() []models.CartItem {
	return []models.CartItem{}
}

// Merge folds a guest cart into a signed-in customer's cart. Quantities of
// shared products add up and the guest snapshot wins. Order is preserved:
// server lines first, then new guest lines.
func Merge(server, guest []models.CartItem) []models.CartItem {
	out := clone(server)
	for _, it := range guest {
		out = Add(out, it)
	}
	return out
}

// Count returns the number of units in the cart.
func Count(items []models.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// CODAvailable reports whether every line may be paid on delivery.
func CODAvailable(items []models.CartItem) bool {
	for _, it := range items {
		if !it.CODAvailable {
			return false
		}
	}
	return len(items) > 0
}

func capQuantity(q int) int {
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

func clone(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, len(items), len(items)+1)
	copy(out, items)
	return out
}
