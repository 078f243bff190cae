// Package submitter holds the order submitters used by checkout.
package submitter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
)

// DefaultDelay is the processing time of the simulated submitter.
const DefaultDelay = 1500 * time.Millisecond

// Reference derives the customer-facing order reference from an order ID.
func Reference(orderID string) string {
	ref := strings.ToUpper(strings.ReplaceAll(orderID, "-", ""))
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return "FFH-" + ref
}

// Simulated acknowledges every order after a fixed delay.
type Simulated struct {
	delay  time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewSimulated creates a simulated submitter. A non-positive delay
// acknowledges immediately.
func NewSimulated(delay time.Duration, logger *slog.Logger) *Simulated {
	return &Simulated{delay: delay, logger: logger, now: time.Now}
}

// Submit waits out the delay and acknowledges order. A canceled ctx aborts
// the wait with ctx.Err().
func (s *Simulated) Submit(ctx context.Context, order domain.Order) (*domain.OrderReceipt, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	receipt := &domain.OrderReceipt{
		OrderID:    order.ID,
		Reference:  Reference(order.ID),
		AcceptedAt: s.now().UTC(),
	}

	s.logger.DebugContext(ctx, "simulated order accepted",
		slog.String("order_id", order.ID),
		slog.String("reference", receipt.Reference),
		slog.String("total", pricing.FormatCurrency(order.Total)),
	)
	return receipt, nil
}
