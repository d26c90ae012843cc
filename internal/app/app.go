package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tix-bff/internal/clock"
	"github.com/kirinyoku/tix-bff/internal/config"
	"github.com/kirinyoku/tix-bff/internal/inventory"
	"github.com/kirinyoku/tix-bff/internal/postgres"
	"github.com/kirinyoku/tix-bff/internal/redis"
	postgresrepo "github.com/kirinyoku/tix-bff/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tix-bff/internal/repository/redis"
	"github.com/kirinyoku/tix-bff/internal/service"
	"github.com/kirinyoku/tix-bff/internal/service/catalog"
	httpgin "github.com/kirinyoku/tix-bff/internal/transport/http/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const idempotencyTTL = 2 * time.Hour

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	services   *service.Services
	pubsub     *redisrepo.EventsPubSub
	pool       *pgxpool.Pool
	rdb        *goredis.Client
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()

	// Initialize dependencies
	pgxPool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN()})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	inv := inventory.New(inventory.Config{
		BaseURL: cfg.Inventory.URL,
		Timeout: cfg.Inventory.Timeout,
	}, logger)

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewEventsPubSub(rdb)
	sessions := redisrepo.NewSessionStore(rdb, cfg.Session.TTL)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, idempotencyTTL)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "booking", cfg.Booking.RateLimit, cfg.Booking.RateWindow)

	// Initialize services
	services := service.NewServices(inv, store, cache, pubsub, clock.NewSystem(), logger, service.Config{
		Catalog:   catalog.Config{CatalogTTL: cfg.Catalog.TTL},
		JWTSecret: cfg.Auth.JWTSecret,
	})

	if err := services.Journal.EnsureSchema(ctx); err != nil {
		pgxPool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to prepare journal schema: %w", err)
	}

	// Initialize Gin router
	router := httpgin.NewRouter(services, httpgin.Deps{
		Sessions:     sessions,
		Idempotency:  idempotencyStore,
		Limiter:      limiter,
		Attempts:     services.Journal,
		Clock:        clock.NewSystem(),
		CORSOrigins:  cfg.Server.CORSOrigins,
		SecureCookie: cfg.Session.SecureCookie,
		SessionTTL:   cfg.Session.TTL,
	}, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		services: services,
		pubsub:   pubsub,
		pool:     pgxPool,
		rdb:      rdb,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.pool.Close()
	defer func() { _ = a.rdb.Close() }()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Drop cached catalog entries when another instance books seats
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, eventID string) {
			a.logger.Debug("event changed", "event_id", eventID)
			a.services.Catalog.Invalidate(ctx, eventID)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("events subscription: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
