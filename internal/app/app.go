package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vinylen2/ellabib-server/internal/cache"
	"github.com/vinylen2/ellabib-server/internal/config"
	"github.com/vinylen2/ellabib-server/internal/event"
	handler "github.com/vinylen2/ellabib-server/internal/handler/http"
	"github.com/vinylen2/ellabib-server/internal/repository/postgres"
	"github.com/vinylen2/ellabib-server/internal/service"
	"github.com/vinylen2/ellabib-server/migrations"
	"github.com/vinylen2/ellabib-server/pkg/database"
	"github.com/vinylen2/ellabib-server/pkg/health"
	pkgkafka "github.com/vinylen2/ellabib-server/pkg/kafka"
)

// App wires together all dependencies and runs the ellabib server.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	ratings    *service.RatingService
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
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

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	database.RegisterPoolMetrics(pool, "ellabib-server")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Leaderboard cache is optional; the services treat a nil cache as
	// caching disabled.
	var (
		redisClient *redis.Client
		lbCache     *cache.LeaderboardCache
	)
	if cfg.LeaderboardCache {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		lbCache = cache.NewLeaderboardCache(redisClient, cfg.LeaderboardCacheTTL)
		logger.Info("leaderboard cache enabled",
			slog.String("addr", cfg.RedisAddr),
			slog.Duration("ttl", cfg.LeaderboardCacheTTL),
		)
	}

	// Build the dependency graph.
	reviewRepo := postgres.NewReviewRepository(pool)
	bookRepo := postgres.NewBookRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	rollupRepo := postgres.NewRollupRepository(pool)

	eventProducer := event.NewProducer(producer, logger)

	singleMembership := cfg.MembershipCardinality == config.MembershipSingle
	ratingService := service.NewRatingService(bookRepo, rollupRepo, eventProducer, logger, singleMembership)
	reviewService := service.NewReviewService(reviewRepo, bookRepo, userRepo, ratingService, eventProducer, lbCache, logger)
	rollupService := service.NewRollupService(rollupRepo, userRepo, lbCache, cfg.ScoringPolicy(), logger)

	// Health checks. Postgres is required to serve; kafka and redis outages
	// only degrade the service.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(reviewService, rollupService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		ratings:    ratingService,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and the reconcile loop, then blocks until the
// context is canceled.
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

	if a.cfg.ReconcileInterval > 0 {
		go a.reconcileLoop(ctx)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// reconcileLoop periodically repairs stale book ratings.
func (a *App) reconcileLoop(ctx context.Context) {
	a.logger.Info("reconcile loop started",
		slog.Duration("interval", a.cfg.ReconcileInterval),
	)

	ticker := time.NewTicker(a.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("reconcile loop stopped")
			return
		case <-ticker.C:
			reconciled, err := a.ratings.ReconcileAll(ctx)
			if err != nil {
				a.logger.Error("rating reconcile sweep failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			a.logger.Info("rating reconcile sweep complete",
				slog.Int("books", reconciled),
			)
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	// Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
