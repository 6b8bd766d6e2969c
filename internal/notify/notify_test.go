package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/pkg/logger"
)

type recordingMailer struct {
	mu    sync.Mutex
	sent  []Message
	err   error
	block chan struct{}
}

func (m *recordingMailer) Send(ctx context.Context, msg Message) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type panickingMailer struct{}

func (panickingMailer) Send(context.Context, Message) error { panic("boom") }

func sampleOrder() *models.Order {
	code := "WELCOME10"
	discount := decimal.NewFromInt(74)
	return &models.Order{
		OrderID:         "order_123",
		PaymentMethod:   models.PaymentCOD,
		Currency:        "INR",
		Amount:          decimal.NewFromInt(714),
		Subtotal:        decimal.NewFromInt(748),
		ShippingCharges: decimal.NewFromInt(40),
		CouponCode:      &code,
		DiscountAmount:  &discount,
		Items: []models.OrderItem{
			{ProductID: "1", Name: "Hand-thrown Ceramic Mug", Price: decimal.NewFromInt(299), Quantity: 2},
			{ProductID: "2", Name: "Block-print <b>Tote</b>", Price: decimal.NewFromInt(150), Quantity: 1},
		},
		Customer: models.CustomerInfo{Name: "Asha", Email: "asha@example.com", Address: "12 Lake Road"},
	}
}

func TestOrderConfirmation_Renders(t *testing.T) {
	msg, err := OrderConfirmation("Kumkum Crafts", sampleOrder())
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", msg.To)
	assert.Contains(t, msg.Subject, "order_123")
	assert.Contains(t, msg.HTML, "will be paid on delivery")
	assert.Contains(t, msg.HTML, "INR 714.00")
	assert.Contains(t, msg.HTML, "WELCOME10")
	assert.NotContains(t, msg.HTML, "<b>Tote</b>", "item names are escaped")
}

func TestDispatcher_SendsInBackground(t *testing.T) {
	mailer := &recordingMailer{block: make(chan struct{})}
	d := NewDispatcher(mailer, logger.New("error"), "Kumkum Crafts", time.Second)

	start := time.Now()
	d.OrderPlaced(sampleOrder())
	assert.Less(t, time.Since(start), 500*time.Millisecond, "OrderPlaced must not block on the mailer")

	close(mailer.block)
	require.NoError(t, d.Wait(context.Background()))
	require.Len(t, mailer.sent, 1)
}

func TestDispatcher_FailureIsLoggedOnly(t *testing.T) {
	var buf bytes.Buffer
	mailer := &recordingMailer{err: errors.New("provider down")}
	d := NewDispatcher(mailer, logger.NewWithWriter(&buf, "info"), "Kumkum Crafts", time.Second)

	d.OrderPlaced(sampleOrder())
	require.NoError(t, d.Wait(context.Background()))

	assert.Contains(t, buf.String(), "failed to send order confirmation email")
	assert.Contains(t, buf.String(), "provider down")
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(panickingMailer{}, logger.NewWithWriter(&buf, "info"), "Kumkum Crafts", time.Second)

	d.OrderPlaced(sampleOrder())
	require.NoError(t, d.Wait(context.Background()))
	assert.True(t, strings.Contains(buf.String(), "panicked"))
}

func TestDispatcher_WaitHonoursContext(t *testing.T) {
	mailer := &recordingMailer{block: make(chan struct{})}
	defer close(mailer.block)
	d := NewDispatcher(mailer, logger.New("error"), "Kumkum Crafts", time.Second)

	d.OrderPlaced(sampleOrder())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)
}
