// Package db opens the Postgres pool, applies migrations and exposes
// readiness probes for the stores the backend depends on.
package db

import (
	"context"
	"time"

	"brokerage_backend/platform/config"
	"brokerage_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectAttempts  = 5
	connectBaseDelay = 2 * time.Second
)

// NewPool opens a pool and pings it once before returning.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Connect keeps calling NewPool until the database answers, for processes
// that start alongside it.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := Retry(ctx, log, "database connection", connectAttempts, connectBaseDelay, func() error {
		p, err := NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	return pool, err
}
