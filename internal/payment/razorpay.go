package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

// RazorpayGateway opens orders through the Razorpay Orders API.
type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
	}
}

// CreateOrder opens a gateway order. The SDK takes no context, so ctx is
// only checked before the call.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	minor := MinorUnits(amount)
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   minor,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay create order: response has no id")
	}

	out := &GatewayOrder{ID: id, Amount: minor, Currency: currency}
	// the API echoes the amount as a JSON number
	if a, ok := body["amount"].(float64); ok {
		out.Amount = int64(a)
	}
	if c, ok := body["currency"].(string); ok && c != "" {
		out.Currency = c
	}
	return out, nil
}

func (g *RazorpayGateway) KeyID() string { return g.keyID }
