// Package payment talks to the online payment gateway and verifies its
// payment signatures.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayOrder is the order opened with the payment processor. Amount is in
// the smallest currency unit.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
}

// Gateway opens orders with the payment processor.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error)
	// KeyID is the public key the browser checkout widget needs.
	KeyID() string
}

// MinorUnits converts an amount to the smallest currency unit, rounding to
// the nearest unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Receipt builds the short merchant reference sent with a gateway order.
func Receipt() string {
	return "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

// OfflineGateway fabricates gateway orders without calling out. It is used
// for local runs and tests; signatures are still verified with the
// configured secret.
type OfflineGateway struct {
	keyID string
}

func NewOfflineGateway(keyID string) *OfflineGateway {
	return &OfflineGateway{keyID: keyID}
}

func (g *OfflineGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}
	return &GatewayOrder{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   MinorUnits(amount),
		Currency: currency,
	}, nil
}

func (g *OfflineGateway) KeyID() string { return g.keyID }
