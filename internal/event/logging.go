// Package event publishes storefront domain events.
package event

import (
	"context"
	"log/slog"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
)

// LogNotifier writes events to the log instead of a broker. It is used when
// Kafka is disabled.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// PublishCartUpdated logs a cart change.
func (n *LogNotifier) PublishCartUpdated(ctx context.Context, sessionID string, itemCount int, subtotal pricing.Cents) error {
	n.logger.DebugContext(ctx, "cart updated",
		slog.String("event", TopicCartUpdated),
		slog.String("session_id", sessionID),
		slog.Int("item_count", itemCount),
		slog.String("total", pricing.FormatCurrency(subtotal)),
	)
	return nil
}

// PublishCartCleared logs a cleared cart.
func (n *LogNotifier) PublishCartCleared(ctx context.Context, sessionID string) error {
	n.logger.DebugContext(ctx, "cart cleared",
		slog.String("event", TopicCartCleared),
		slog.String("session_id", sessionID),
	)
	return nil
}

// PublishOrderPlaced logs an acknowledged order.
func (n *LogNotifier) PublishOrderPlaced(ctx context.Context, evt domain.OrderPlaced) error {
	n.logger.InfoContext(ctx, "order placed",
		slog.String("event", TopicCheckoutCompleted),
		slog.String("order_id", evt.OrderID),
		slog.String("session_id", evt.SessionID),
		slog.String("reference", evt.Reference),
		slog.Int("item_count", evt.ItemCount),
		slog.String("total", pricing.FormatCurrency(evt.Total)),
	)
	return nil
}
