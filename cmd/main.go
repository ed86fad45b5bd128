// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/agencei/internal/config"
	"github.com/Shivanand-hulikatti/agencei/internal/database"
	"github.com/Shivanand-hulikatti/agencei/internal/handler"
	"github.com/Shivanand-hulikatti/agencei/internal/notify"
	"github.com/Shivanand-hulikatti/agencei/internal/repository"
	"github.com/Shivanand-hulikatti/agencei/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Str("service", "agencei").Logger()
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()

	// ── 1. Storage ────────────────────────────────────────────────────────
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info().Str("store", cfg.Store).Msg("store ready")

	// ── 2. Optional Redis (check-in rate limiting) ────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, check-in limiter fails open")
		}
	} else {
		logger.Info().Msg("REDIS_URL not set, check-in rate limiting disabled")
	}

	// ── 3. Optional AMQP (domain notifications) ───────────────────────────
	var publisher notify.Publisher = notify.Nop{}
	if cfg.AMQPURL != "" {
		p, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return err
		}
		publisher = p
	} else {
		logger.Info().Msg("AMQP_URL not set, notifications are dropped")
	}
	defer publisher.Close()

	// ── 4. Wire up layers ─────────────────────────────────────────────────
	svc := service.New(store, publisher, cfg.Scheduling, logger)
	h := handler.New(svc, logger)
	if rdb != nil {
		h.AddHealthCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	limiter := handler.NewCheckInLimiter(rdb, cfg.Scheduling.CheckInRateLimit, cfg.Scheduling.CheckInRateWindow, logger)
	r := handler.NewRouter(h, limiter, logger)

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := database.NewPool(ctx, cfg.DB, logger)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		return repository.NewPostgresStore(pool), nil
	case config.StoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		return repository.NewSQLiteStore(db), nil
	default:
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
}
