package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// Dispatcher sends order emails on detached goroutines. Callers never see a
// delivery failure; it is logged here.
type Dispatcher struct {
	mailer   Mailer
	log      *slog.Logger
	shopName string
	timeout  time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(mailer Mailer, log *slog.Logger, shopName string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		mailer:   mailer,
		log:      log,
		shopName: shopName,
		timeout:  timeout,
	}
}

// OrderPlaced queues the confirmation email for o and returns immediately.
func (d *Dispatcher) OrderPlaced(o *models.Order) {
	snapshot := *o
	snapshot.Items = append([]models.OrderItem(nil), o.Items...)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("order confirmation email panicked", "order_id", snapshot.OrderID, "panic", fmt.Sprint(r))
			}
		}()

		// not tied to the request context, which ends with the response
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sendConfirmation(ctx, &snapshot); err != nil {
			d.log.Error("failed to send order confirmation email",
				"order_id", snapshot.OrderID,
				"error", err,
			)
			return
		}
		d.log.Info("order confirmation email sent", "order_id", snapshot.OrderID)
	}()
}

func (d *Dispatcher) sendConfirmation(ctx context.Context, o *models.Order) error {
	msg, err := OrderConfirmation(d.shopName, o)
	if err != nil {
		return err
	}
	return d.mailer.Send(ctx, msg)
}

// Wait blocks until queued emails finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
