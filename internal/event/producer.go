package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
	pkgkafka "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/kafka"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/logger"
)

// Kafka topic constants for storefront events.
const (
	TopicCheckoutCompleted = "foodiehub.checkout.completed"
	TopicCartUpdated       = "foodiehub.cart.updated"
	TopicCartCleared       = "foodiehub.cart.cleared"
)

// Aggregate type constants.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceStorefront identifies events published by this server.
const SourceStorefront = "foodiehub-storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string        `json:"session_id"`
	ItemCount int           `json:"item_count"`
	Subtotal  pricing.Cents `json:"subtotal"`
	Total     string        `json:"total"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// OrderPlacedData is the payload for a checkout.completed event.
type OrderPlacedData struct {
	domain.OrderPlaced
	DisplayTotal string `json:"display_total"`
}

// Publisher is the subset of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, itemCount int, subtotal pricing.Cents) error {
	data := CartUpdatedData{
		SessionID: sessionID,
		ItemCount: itemCount,
		Subtotal:  subtotal,
		Total:     pricing.FormatCurrency(subtotal),
	}
	return p.publish(ctx, TopicCartUpdated, sessionID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	return p.publish(ctx, TopicCartCleared, sessionID, AggregateTypeCart, CartClearedData{SessionID: sessionID})
}

// PublishOrderPlaced publishes a checkout.completed event keyed by session so
// it is ordered after the cart events of the same checkout.
func (p *Producer) PublishOrderPlaced(ctx context.Context, evt domain.OrderPlaced) error {
	data := OrderPlacedData{
		OrderPlaced:  evt,
		DisplayTotal: pricing.FormatCurrency(evt.Total),
	}
	if err := p.publish(ctx, TopicCheckoutCompleted, evt.SessionID, AggregateTypeOrder, data); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "published checkout.completed event",
		slog.String("order_id", evt.OrderID),
		slog.String("reference", evt.Reference),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if id := logger.UserIDFromContext(ctx); id != "" {
		event.WithMetadata("user_id", id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
