package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/service"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/httputil"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	carts  *service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(carts *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
// An omitted quantity adds one unit.
type AddItemRequest struct {
	ProductID domain.ProductID `json:"product_id" validate:"required"`
	Quantity  *int             `json:"quantity"`
}

// UpdateQuantityRequest is the JSON request body for setting a line quantity.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// --- Response DTOs ---

type cartLineResponse struct {
	ID        domain.ProductID `json:"id"`
	Name      string           `json:"name"`
	Price     string           `json:"price"`
	UnitPrice pricing.Cents    `json:"unit_price"`
	Image     string           `json:"image"`
	Quantity  int              `json:"quantity"`
	Category  string           `json:"category"`
	LineTotal string           `json:"line_total"`
}

type cartResponse struct {
	SessionID string             `json:"session_id"`
	Lines     []cartLineResponse `json:"lines"`
	ItemCount int                `json:"item_count"`
	Subtotal  pricing.Cents      `json:"subtotal"`
	Total     string             `json:"total"`
}

func toCartLineResponses(lines []domain.CartLine) []cartLineResponse {
	out := make([]cartLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartLineResponse{
			ID:        l.ID,
			Name:      l.Name,
			Price:     pricing.FormatCurrency(l.UnitPrice),
			UnitPrice: l.UnitPrice,
			Image:     l.Image,
			Quantity:  l.Quantity,
			Category:  l.Category,
			LineTotal: pricing.FormatCurrency(l.LineTotal()),
		})
	}
	return out
}

func toCartResponse(snap service.CartSnapshot) cartResponse {
	return cartResponse{
		SessionID: snap.SessionID,
		Lines:     toCartLineResponses(snap.Lines),
		ItemCount: snap.ItemCount,
		Subtotal:  snap.Subtotal,
		Total:     snap.Total(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(snap))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	snap, err := h.carts.AddProduct(r.Context(), sessionIDFromContext(r.Context()), req.ProductID, qty)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(snap))
}

// UpdateItem handles PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setQuantity(w, r, itemID(r), *req.Quantity)
}

// IncrementItem handles POST /api/v1/cart/items/{id}/increment
func (h *CartHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, 1)
}

// DecrementItem handles POST /api/v1/cart/items/{id}/decrement. The quantity
// never drops below one; removal goes through DELETE.
func (h *CartHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, -1)
}

func (h *CartHandler) adjust(w http.ResponseWriter, r *http.Request, delta int) {
	snap, err := h.carts.Adjust(r.Context(), sessionIDFromContext(r.Context()), itemID(r), delta)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(snap))
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request, id domain.ProductID, qty int) {
	snap, err := h.carts.SetQuantity(r.Context(), sessionIDFromContext(r.Context()), id, qty)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(snap))
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.Remove(r.Context(), sessionIDFromContext(r.Context()), itemID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(snap))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.Clear(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, toCartResponse(snap))
}

func itemID(r *http.Request) domain.ProductID {
	return domain.ProductID(chi.URLParam(r, "id"))
}
