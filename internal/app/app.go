package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/lbksmart/storefront/internal/backup"
	"github.com/lbksmart/storefront/internal/config"
	"github.com/lbksmart/storefront/internal/event"
	handler "github.com/lbksmart/storefront/internal/handler/http"
	"github.com/lbksmart/storefront/internal/message"
	"github.com/lbksmart/storefront/internal/repository"
	"github.com/lbksmart/storefront/internal/repository/postgres"
	redisrepo "github.com/lbksmart/storefront/internal/repository/redis"
	"github.com/lbksmart/storefront/internal/service"
	"github.com/lbksmart/storefront/internal/suggestion"
	"github.com/lbksmart/storefront/migrations"
	"github.com/lbksmart/storefront/pkg/database"
	"github.com/lbksmart/storefront/pkg/health"
	"github.com/lbksmart/storefront/pkg/httpclient"
	pkgkafka "github.com/lbksmart/storefront/pkg/kafka"
	"github.com/lbksmart/storefront/pkg/tracing"
)

const serviceName = "storefront"

// eventSink is what the services publish to: Kafka, or a no-op without
// brokers.
type eventSink interface {
	service.CartEvents
	service.OrderEvents
	service.Dispatcher
}

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	// stopBackground ends goroutines owned by the router, such as rate
	// limiter eviction.
	stopBackground context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}

	// Initialize Redis client. Carts always live in Redis.
	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	logger.Info("connected to Redis",
		slog.String("addr", cfg.Redis().Addr()),
		slog.Int("db", cfg.RedisDB),
	)
	a.registerCollector(database.NewRedisPoolCollector(rdb))

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	orderLog, err := a.openOrderLog(ctx)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	events := a.openEvents(ctx)

	var orderBackup service.OrderBackup
	if cfg.OrderBackupURL != "" {
		cb := httpclient.NewCircuitBreakerClient(httpclient.New(cfg.BackupHTTP()), cfg.BackupCircuitBreaker(), logger)
		orderBackup = backup.NewClient(cfg.OrderBackupURL, cb, logger)
		logger.Info("order backup enabled", slog.String("url", cfg.OrderBackupURL))
	}

	// Build the dependency graph.
	engine := suggestion.NewEngine()
	carts := service.NewCartStore(redisrepo.NewCartRepository(rdb, cfg.CartTTLDuration()), events, engine, logger)
	orders := service.NewOrderAssembler(orderLog, events, logger)
	formatter := message.NewFormatter(cfg.CurrencyLabel, cfg.Location())
	checkoutService := service.NewCheckoutService(carts, orders, formatter, events, orderBackup, cfg.DispatchBaseURL, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if a.pool != nil {
		pool := a.pool
		healthHandler.Register("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}
	if a.producer != nil {
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
	}

	// HTTP router.
	bgCtx, stop := context.WithCancel(context.Background())
	a.stopBackground = stop
	router := handler.NewRouter(bgCtx, handler.Handlers{
		Cart:     handler.NewCartHandler(carts, engine, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
		Order:    handler.NewOrderHandler(orders, logger),
		Catalog:  handler.NewCatalogHandler(cfg.Location(), cfg.DispatchBaseURL, logger),
	}, healthHandler, handler.RouterConfig{
		AllowedOrigins:    cfg.AllowedOrigins,
		CheckoutPerMinute: cfg.CheckoutRatePerMinute,
		CheckoutBurst:     cfg.CheckoutRateBurst,
		CatalogMaxAge:     cfg.CatalogMaxAge,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openOrderLog connects the configured order log backend. The Postgres
// backend runs the embedded migrations first.
func (a *App) openOrderLog(ctx context.Context) (repository.OrderLog, error) {
	if a.cfg.OrderLogStore == config.OrderLogRedis {
		a.logger.Info("order log backend selected", slog.String("store", config.OrderLogRedis))
		return redisrepo.NewOrderLog(a.rdb), nil
	}

	pool, err := database.NewPostgresPool(ctx, a.cfg.Postgres(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", a.cfg.PostgresHost),
		slog.Int("port", a.cfg.PostgresPort),
		slog.String("database", a.cfg.PostgresDB),
	)
	a.registerCollector(database.NewPostgresPoolCollector(pool))

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	return postgres.NewOrderLog(pool), nil
}

// openEvents returns the Kafka producer, or a no-op sink when no brokers
// are configured. An unreachable broker only degrades the service.
func (a *App) openEvents(ctx context.Context) eventSink {
	if len(a.cfg.KafkaBrokers) == 0 {
		a.logger.Info("no kafka brokers configured, event publishing disabled")
		return event.Nop{Logger: a.logger}
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	a.producer = producer
	if err := pingKafkaWithRetry(ctx, producer, a.logger); err != nil {
		a.logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))
	}
	return event.NewProducer(producer, a.logger)
}

func (a *App) registerCollector(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			a.logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
		}
	}
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
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans of drained requests)
// 3. Kafka producer, PostgreSQL pool and Redis client
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.closeAll()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeAll releases whatever NewApp managed to open.
func (a *App) closeAll() []error {
	var errs []error

	if a.stopBackground != nil {
		a.stopBackground()
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errs
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := producer.Ping(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		base := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter for retry backoff
		wait := base + jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka ping: %w", lastErr)
}
