package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/auth"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/catalog"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/config"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/content"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/event"
	handler "github.com/FutureFoodz/fuss-free-foodie-hub/internal/handler/http"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/repository"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/repository/memory"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/repository/postgres"
	redisrepo "github.com/FutureFoodz/fuss-free-foodie-hub/internal/repository/redis"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/service"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/submitter"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/database"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/health"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/httpclient"
	pkgkafka "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/kafka"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/middleware"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/tracing"
)

// ServiceVersion is reported in traces.
const ServiceVersion = "0.1.0"

// notifier is what the storefront publishes through: cart and order events.
type notifier interface {
	service.CartEvents
	service.OrderNotifier
}

// App wires together all dependencies and runs the storefront server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = a.closeResources()
		}
	}()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    "foodiehub-" + handler.ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	// Product feed.
	products, err := catalog.New(cfg.CatalogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	// Recipes and blog.
	library, err := content.New(logger)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	// Cart snapshot store.
	store, err := a.newCartStore(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	// Event publishing.
	events := a.newNotifier(healthHandler)

	// Order submission.
	orders := a.newSubmitter()

	// Build the dependency graph.
	cartService := service.NewCartService(store, products, events, cfg.CartTTLDuration(), logger)
	checkoutService := service.NewCheckoutService(cartService, orders, events, pricing.Cents(cfg.ShippingFeeCents), logger)

	routerCfg := handler.RouterConfig{
		Catalog:    products,
		Content:    library,
		Carts:      cartService,
		Checkout:   checkoutService,
		AdminEmail: cfg.AdminEmail,
		Session: handler.SessionConfig{
			MaxAge: cfg.CartTTLDuration(),
			Secure: cfg.SecureCookies,
		},
		CORS: corsConfig(cfg.Environment, cfg.CORSAllowedOrigins),
		RateLimit: middleware.RateLimitConfig{
			RPS:               cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
			TrustProxyHeaders: cfg.TrustProxyHeaders,
		},
		RequestTimeout: cfg.RequestTimeout,
		Health:         healthHandler,
		Logger:         logger,
	}

	// Accounts.
	if cfg.AuthEnabled {
		authService, jwtManager, err := a.newAuth(ctx, healthHandler)
		if err != nil {
			return nil, err
		}
		routerCfg.Auth = authService
		routerCfg.Tokens = jwtManager.Validator()
	} else {
		logger.Info("accounts disabled; auth routes not mounted")
	}

	// HTTP router.
	router := handler.NewRouter(routerCfg)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ok = true
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

func (a *App) newCartStore(ctx context.Context, h *health.Handler) (repository.CartStore, error) {
	if a.cfg.CartStore == config.CartStoreMemory {
		a.logger.Warn("using in-memory cart store; carts are lost on restart")
		return memory.NewCartStore(), nil
	}

	redisCfg := database.DefaultRedisConfig()
	redisCfg.Addr = a.cfg.RedisAddr
	redisCfg.Password = a.cfg.RedisPass
	redisCfg.DB = a.cfg.RedisDB

	rdb, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	a.logger.Info("connected to Redis",
		slog.String("addr", a.cfg.RedisAddr),
		slog.Int("db", a.cfg.RedisDB),
	)

	store := redisrepo.NewCartStore(rdb, a.cfg.CartTTLDuration())
	h.Register("redis", store.Ping)
	return store, nil
}

func (a *App) newNotifier(h *health.Handler) notifier {
	if !a.cfg.KafkaEnabled {
		a.logger.Info("kafka disabled; events are logged only")
		return event.NewLogNotifier(a.logger)
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	a.producer = producer
	a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))

	h.Register("kafka", producer.Ping)
	return event.NewProducer(producer, a.logger)
}

func (a *App) newSubmitter() service.OrderSubmitter {
	if a.cfg.OrderBackendURL == "" {
		a.logger.Info("using simulated order submission", slog.Duration("delay", a.cfg.SimulatedDelay))
		return submitter.NewSimulated(a.cfg.SimulatedDelay, a.logger)
	}

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("order-backend"),
		a.logger,
	)
	a.logger.Info("submitting orders to backend", slog.String("url", a.cfg.OrderBackendURL))
	return submitter.NewHTTP(client, a.cfg.OrderBackendURL, a.logger)
}

func (a *App) newAuth(ctx context.Context, h *health.Handler) (*service.AuthService, *auth.JWTManager, error) {
	pool, err := database.NewPostgresPool(ctx, database.DefaultPostgresConfig(a.cfg.DatabaseURL), a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL")

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool); err != nil {
		return nil, nil, fmt.Errorf("register pool metrics: %w", err)
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, a.cfg.DatabaseURL, postgres.Migrations, postgres.MigrationsDir, a.logger); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	// Configure slow query logging.
	database.SetSlowQueryLogging(a.cfg.SlowQueryThreshold(), a.logger)

	h.Register("postgres", pool.Ping)

	jwtManager := auth.NewJWTManager(a.cfg.JWTSecret, a.cfg.JWTExpiry)
	users := postgres.NewUserRepository(pool)
	return service.NewAuthService(users, jwtManager, a.cfg.AdminEmail, a.logger), jwtManager, nil
}

func corsConfig(environment string, origins []string) middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	cfg.Environment = environment
	cfg.AllowCredentials = true
	if len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	return cfg
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests and their cart writes)
// 2. everything the requests depended on
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources flushes spans and closes Kafka, Postgres and Redis. Each
// resource is released at most once.
func (a *App) closeResources() error {
	var errs []error

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.rdb = nil
	}

	return errors.Join(errs...)
}
