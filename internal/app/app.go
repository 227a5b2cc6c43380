package app

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/freshmart/review-service/internal/cache"
	"github.com/freshmart/review-service/internal/client"
	"github.com/freshmart/review-service/internal/config"
	"github.com/freshmart/review-service/internal/event"
	handler "github.com/freshmart/review-service/internal/handler/http"
	"github.com/freshmart/review-service/internal/repository"
	"github.com/freshmart/review-service/internal/repository/memory"
	"github.com/freshmart/review-service/internal/repository/postgres"
	"github.com/freshmart/review-service/internal/service"
	"github.com/freshmart/review-service/pkg/database"
	"github.com/freshmart/review-service/pkg/health"
	"github.com/freshmart/review-service/pkg/httpclient"
	pkgkafka "github.com/freshmart/review-service/pkg/kafka"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// App wires together all dependencies and runs the review service.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	pool        *pgxpool.Pool
	redisClient *redis.Client
	producer    *pkgkafka.Producer
	httpServer  *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app := &App{cfg: cfg, logger: logger}
	healthHandler := health.NewHandler()

	var repo repository.ReviewRepository

	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		repo = memory.NewSeededReviewRepository()
		logger.Info("using seeded in-memory review store")
	default:
		pgCfg := database.PostgresConfig{
			Host:            cfg.PostgresHost,
			Port:            cfg.PostgresPort,
			User:            cfg.PostgresUser,
			Password:        cfg.PostgresPass,
			DBName:          cfg.PostgresDB,
			SSLMode:         cfg.PostgresSSL,
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		}

		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)

		migrations, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("open embedded migrations: %w", err)
		}
		if err := database.RunMigrations(ctx, pool, migrations, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}

		app.pool = pool
		repo = postgres.NewReviewRepository(pool)

		healthHandler.Register("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}

	// Kafka producer for review lifecycle events.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	app.producer = pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	healthHandler.Register("kafka", func(ctx context.Context) error {
		return app.producer.Ping(ctx)
	})

	// Redis stats cache (optional).
	var statsCache *cache.StatsCache
	if cfg.StatsCacheEnabled {
		redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		app.redisClient = redisClient
		statsCache = cache.NewStatsCache(redisClient, cfg.StatsCacheTTL, logger)
		logger.Info("stats cache enabled",
			slog.String("addr", fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)),
			slog.Duration("ttl", cfg.StatsCacheTTL),
		)

		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// Order service client behind a circuit breaker.
	baseClient := httpclient.New(httpclient.DefaultConfig())
	cbClient := httpclient.NewCircuitBreakerClient(
		baseClient,
		httpclient.DefaultCircuitBreakerConfig("order-service"),
		logger,
	)
	orderClient := client.NewOrderClient(cbClient, cfg.OrderServiceURL, logger)

	// Build the dependency graph.
	eventProducer := event.NewProducer(app.producer, logger)
	reviewService := service.NewReviewService(repo, orderClient, eventProducer, statsCache, logger)

	router := handler.NewRouter(reviewService, healthHandler, logger, cfg.PprofAllowedCIDRs)

	app.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return app, nil
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

	a.Close()

	a.logger.Info("application shutdown complete")
	return nil
}

// Close releases all held connections. Safe to call with partially
// initialized state.
func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
