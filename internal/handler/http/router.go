package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/catalog"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/content"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/service"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/health"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/middleware"
)

// ServiceName labels HTTP metrics and spans.
const ServiceName = "storefront"

// RouterConfig carries the dependencies of the storefront API.
type RouterConfig struct {
	Catalog  *catalog.Catalog
	Content  *content.Library
	Carts    *service.CartService
	Checkout *service.CheckoutService

	// Auth and Tokens are nil when accounts are disabled. The auth routes
	// are then not mounted and admin routes answer 401.
	Auth   *service.AuthService
	Tokens middleware.TokenValidator

	AdminEmail     string
	Session        SessionConfig
	CORS           middleware.CORSConfig
	RateLimit      middleware.RateLimitConfig
	RequestTimeout time.Duration
	Health         *health.Handler
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	catalogHandler := NewCatalogHandler(cfg.Catalog, logger)
	cartHandler := NewCartHandler(cfg.Carts, logger)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, logger)
	contentHandler := NewContentHandler(cfg.Content, logger)
	adminHandler := NewAdminHandler(cfg.Catalog, cfg.Content, cfg.Carts, cfg.Checkout, logger)

	// Submitting orders and credential checks are limited per client.
	limited := middleware.RateLimit(cfg.RateLimit, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		if cfg.Tokens != nil {
			r.Use(middleware.Authenticate(cfg.Tokens))
		}
		r.Use(Session(cfg.Session))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.ListProducts)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/{id}", catalogHandler.GetProduct)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", contentHandler.ListRecipes)
			r.Get("/{id}", contentHandler.GetRecipe)
		})

		r.Route("/blog", func(r chi.Router) {
			r.Get("/", contentHandler.ListPosts)
			r.Get("/{id}", contentHandler.GetPost)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{id}", cartHandler.UpdateItem)
			r.Delete("/items/{id}", cartHandler.RemoveItem)
			r.Post("/items/{id}/increment", cartHandler.IncrementItem)
			r.Post("/items/{id}/decrement", cartHandler.DecrementItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.GetCheckout)
			r.With(limited).Post("/", checkoutHandler.Submit)
			r.Delete("/", checkoutHandler.Cancel)
		})

		if cfg.Auth != nil {
			authHandler := NewAuthHandler(cfg.Auth, logger)
			r.Route("/auth", func(r chi.Router) {
				r.With(limited).Post("/signup", authHandler.Signup)
				r.With(limited).Post("/login", authHandler.Login)
				r.With(middleware.RequireAuth).Get("/me", authHandler.Me)
			})
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(cfg.AdminEmail))
			r.Get("/summary", adminHandler.Summary)
			r.Post("/catalog/reload", adminHandler.ReloadCatalog)

			r.Post("/recipes", contentHandler.CreateRecipe)
			r.Put("/recipes/{id}", contentHandler.UpdateRecipe)
			r.Post("/blog", contentHandler.CreatePost)
			r.Put("/blog/{id}", contentHandler.UpdatePost)
		})
	})

	return r
}
