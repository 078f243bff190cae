package http

import (
	"log/slog"
	"net/http"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/catalog"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/content"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/service"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/httputil"
)

// AdminHandler handles HTTP requests for admin endpoints.
type AdminHandler struct {
	catalog  *catalog.Catalog
	library  *content.Library
	carts    *service.CartService
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(
	c *catalog.Catalog,
	library *content.Library,
	carts *service.CartService,
	checkout *service.CheckoutService,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{catalog: c, library: library, carts: carts, checkout: checkout, logger: logger}
}

type summaryResponse struct {
	Products         int      `json:"products"`
	Categories       []string `json:"categories"`
	Recipes          int      `json:"recipes"`
	BlogPosts        int      `json:"blog_posts"`
	CartSessions     int      `json:"cart_sessions"`
	CheckoutSessions int      `json:"checkout_sessions"`
}

func (h *AdminHandler) summary() summaryResponse {
	recipes, posts := h.library.Counts()
	return summaryResponse{
		Products:         h.catalog.Len(),
		Categories:       h.catalog.Categories(),
		Recipes:          recipes,
		BlogPosts:        posts,
		CartSessions:     h.carts.SessionCount(),
		CheckoutSessions: h.checkout.SessionCount(),
	}
}

// Summary handles GET /api/v1/admin/summary
func (h *AdminHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.summary())
}

// ReloadCatalog handles POST /api/v1/admin/catalog/reload
func (h *AdminHandler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Reload(); err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err).WithCode("CATALOG_RELOAD_FAILED"), h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "catalog reloaded", slog.Int("products", h.catalog.Len()))
	httputil.WriteData(w, http.StatusOK, h.summary())
}
