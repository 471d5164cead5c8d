package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/justinloleng/ecommerce/internal/backend"
	"github.com/justinloleng/ecommerce/internal/config"
	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/event"
	handler "github.com/justinloleng/ecommerce/internal/handler/http"
	"github.com/justinloleng/ecommerce/internal/repository"
	"github.com/justinloleng/ecommerce/internal/repository/memory"
	redisrepo "github.com/justinloleng/ecommerce/internal/repository/redis"
	"github.com/justinloleng/ecommerce/internal/service"
	"github.com/justinloleng/ecommerce/pkg/database"
	"github.com/justinloleng/ecommerce/pkg/health"
	"github.com/justinloleng/ecommerce/pkg/httpclient"
	pkgkafka "github.com/justinloleng/ecommerce/pkg/kafka"
	"github.com/justinloleng/ecommerce/pkg/middleware"
	"github.com/justinloleng/ecommerce/pkg/money"
	"github.com/justinloleng/ecommerce/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront BFF.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	shutdownTracer func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Tracing.
	tcfg := tracing.DefaultConfig(serviceName)
	tcfg.Environment = cfg.Environment
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	tcfg.Enabled = cfg.OTELEnabled
	shutdownTracer, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	healthHandler := health.NewHandler()

	// Cart sessions: Redis when enabled, process memory otherwise.
	var (
		sessions    repository.SessionRepository
		submissions repository.SubmissionRepository
	)
	if cfg.RedisEnabled {
		rcfg, err := redisConfig(cfg)
		if err != nil {
			return nil, err
		}
		rdb, err := database.NewRedisClient(ctx, rcfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		database.SetSlowCommandLogging(cfg.SlowRedisThreshold, logger)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, rdb, serviceName); err != nil {
			logger.Warn("redis pool metrics not registered", slog.String("error", err.Error()))
		}

		sessions = redisrepo.NewSessionRepository(rdb, cfg.SessionTTL)
		submissions = redisrepo.NewSubmissionRepository(rdb)
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	} else {
		logger.Warn("redis disabled, cart sessions are kept in memory")
		sessions = memory.NewSessionRepository()
		submissions = memory.NewSubmissionRepository()
	}

	// Events: Kafka when brokers are configured.
	var events service.EventPublisher = event.Discard{}
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Storefront API client with retries behind a circuit breaker.
	hcfg := httpclient.DefaultConfig()
	hcfg.Timeout = cfg.APITimeout
	hcfg.MaxRetries = cfg.APIMaxRetries
	bcfg := httpclient.BreakerConfig{
		Name:         "storefront-api",
		Probes:       cfg.CBMaxRequests,
		Window:       time.Duration(cfg.CBInterval) * time.Second,
		Cooldown:     time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	doer := httpclient.NewBreaker(httpclient.New(hcfg), bcfg, logger)
	api := backend.New(doer, cfg.APIURL, logger)
	healthHandler.RegisterCritical("storefront-api", func(ctx context.Context) error {
		_, err := api.Categories(ctx)
		return err
	})

	// Build the dependency graph.
	calc := domain.TotalCalculator{
		ShippingFee:             money.Cents(cfg.ShippingFeeCents),
		ChargeShippingWhenEmpty: cfg.ShippingOnEmptyCart,
	}
	cart := service.NewReconciler(api, api, sessions, events, calc, logger)
	services := handler.Services{
		Cart:     cart,
		Checkout: service.NewCheckoutService(cart, api, submissions, events, logger),
		Orders:   service.NewOrderService(api, events, logger, cfg.MaxProofBytes),
		Catalog:  service.NewCatalogService(api, logger),
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment
	router := handler.NewRouter(handler.RouterConfig{
		CORS:           cors,
		CatalogMaxAge:  cfg.CatalogCacheMaxAge,
		RequestTimeout: cfg.APITimeout + 5*time.Second,
	}, services, healthHandler, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.APITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// redisConfig splits REDIS_ADDR into the host and port the client expects.
func redisConfig(cfg *config.Config) (database.RedisConfig, error) {
	rcfg := database.DefaultRedisConfig()
	host, port, err := net.SplitHostPort(cfg.RedisAddr)
	if err != nil {
		return rcfg, fmt.Errorf("invalid REDIS_ADDR %q: %w", cfg.RedisAddr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return rcfg, fmt.Errorf("invalid REDIS_ADDR port %q: %w", port, err)
	}
	rcfg.Host = host
	rcfg.Port = p
	rcfg.Password = cfg.RedisPass
	rcfg.DB = cfg.RedisDB
	return rcfg, nil
}

// Handler returns the HTTP handler, for tests that serve it directly.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
