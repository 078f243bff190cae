package domain

import (
	"time"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
)

// CheckoutState is the position of a session in the checkout state machine.
type CheckoutState string

// Checkout states.
const (
	CheckoutEditing    CheckoutState = "editing"
	CheckoutSubmitting CheckoutState = "submitting"
	CheckoutSucceeded  CheckoutState = "succeeded"
	CheckoutFailed     CheckoutState = "failed"
)

// IsTerminal reports whether s ends a submission.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutSucceeded || s == CheckoutFailed
}

// ShippingDetails is the checkout form. Every field but Notes is required.
type ShippingDetails struct {
	Name       string `json:"name" validate:"required,notblank,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Address    string `json:"address" validate:"required,notblank,max=500"`
	City       string `json:"city" validate:"required,notblank,max=100"`
	PostalCode string `json:"postal_code" validate:"required,notblank,max=20"`
	Country    string `json:"country" validate:"required,notblank,max=100"`
	Phone      string `json:"phone" validate:"required,notblank,max=40"`
	Notes      string `json:"notes,omitempty" validate:"max=2000"`
}

// Order is the value handed to an order submitter.
type Order struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	Lines          []CartLine      `json:"lines"`
	ItemCount      int             `json:"item_count"`
	Subtotal       pricing.Cents   `json:"subtotal"`
	ShippingFee    pricing.Cents   `json:"shipping_fee"`
	Total          pricing.Cents   `json:"total"`
	Shipping       ShippingDetails `json:"shipping"`
	CustomerEmail  string          `json:"customer_email,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// OrderReceipt is a submitter's acknowledgement of an order.
type OrderReceipt struct {
	OrderID    string    `json:"order_id"`
	Reference  string    `json:"reference"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// SubmitOutcome is the result variant of a checkout submission.
type SubmitOutcome string

// Submission outcomes.
const (
	OutcomeAcknowledged SubmitOutcome = "acknowledged"
	OutcomeFailed       SubmitOutcome = "failed"
)

// OrderPlaced is the notification emitted once per acknowledged order.
type OrderPlaced struct {
	OrderID       string        `json:"order_id"`
	SessionID     string        `json:"session_id"`
	Reference     string        `json:"reference"`
	Total         pricing.Cents `json:"total"`
	ItemCount     int           `json:"item_count"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	PlacedAt      time.Time     `json:"placed_at"`
}
