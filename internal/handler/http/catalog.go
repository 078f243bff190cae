package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/catalog"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/httputil"
)

// CatalogHandler handles HTTP requests for product endpoints.
type CatalogHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(c *catalog.Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

type productListResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.Filter{
		Category: q.Get("category"),
		Query:    q.Get("q"),
	}

	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("featured must be true or false"), h.logger)
			return
		}
		filter.Featured = &featured
	}

	products := h.catalog.List(filter)
	httputil.WriteData(w, http.StatusOK, productListResponse{Products: products, Total: len(products)})
}

// ListCategories handles GET /api/v1/products/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.catalog.Categories())
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(domain.ProductID(chi.URLParam(r, "id")))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}
