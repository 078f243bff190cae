package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/service"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/httputil"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/middleware"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/validator"
)

// IdempotencyKeyHeader carries the client's submission key.
const IdempotencyKeyHeader = "Idempotency-Key"

// CheckoutHandler handles HTTP requests for checkout endpoints.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(checkout *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

type checkoutResponse struct {
	SessionID   string                `json:"session_id"`
	State       domain.CheckoutState  `json:"state"`
	Empty       bool                  `json:"empty"`
	Lines       []cartLineResponse    `json:"lines"`
	ItemCount   int                   `json:"item_count"`
	Subtotal    string                `json:"subtotal"`
	ShippingFee string                `json:"shipping_fee"`
	Total       string                `json:"total"`
	LastResult  *service.SubmitResult `json:"last_result,omitempty"`
	LastError   string                `json:"last_error,omitempty"`
}

type submitResponse struct {
	*service.SubmitResult
	DisplayTotal string `json:"display_total"`
}

type cancelResponse struct {
	Canceled bool `json:"canceled"`
}

// GetCheckout handles GET /api/v1/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromContext(r.Context())
	quote, err := h.checkout.Quote(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := h.checkout.Status(sessionID)
	httputil.WriteData(w, http.StatusOK, checkoutResponse{
		SessionID:   quote.SessionID,
		State:       quote.State,
		Empty:       quote.Empty,
		Lines:       toCartLineResponses(quote.Lines),
		ItemCount:   quote.ItemCount,
		Subtotal:    pricing.FormatCurrency(quote.Subtotal),
		ShippingFee: pricing.FormatCurrency(quote.ShippingFee),
		Total:       pricing.FormatCurrency(quote.Total),
		LastResult:  status.LastResult,
		LastError:   status.LastError,
	})
}

// Submit handles POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var shipping domain.ShippingDetails
	if err := validator.Decode(r, &shipping); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	in := service.SubmitInput{
		Shipping:       shipping,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)),
	}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		in.CustomerEmail = claims.Email
	}

	result, err := h.checkout.Submit(r.Context(), sessionIDFromContext(r.Context()), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	httputil.WriteData(w, status, submitResponse{
		SubmitResult: result,
		DisplayTotal: pricing.FormatCurrency(result.Total),
	})
}

// Cancel handles DELETE /api/v1/checkout
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	canceled := h.checkout.Cancel(sessionIDFromContext(r.Context()))
	httputil.WriteData(w, http.StatusOK, cancelResponse{Canceled: canceled})
}
