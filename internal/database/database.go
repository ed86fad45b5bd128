// Package database provides connection management for the PostgreSQL and
// SQLite backends, and owns their schemas.
package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/agencei/internal/config"
)

//go:embed schema/*.sql
var schemas embed.FS

const connectAttempts = 5

// NewPool creates and validates a pgxpool connection pool, then applies the
// schema. It retries to accommodate containers starting up.
func NewPool(ctx context.Context, cfg config.DB, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		log.Warn().Err(err).Int("attempt", attempt).Int("of", connectAttempts).Msg("db connect failed, retrying in 2s")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// MigratePostgres applies the idempotent PostgreSQL schema.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	ddl, err := schemas.ReadFile("schema/postgres.sql")
	if err != nil {
		return fmt.Errorf("read postgres schema: %w", err)
	}
	if _, err := pool.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}
