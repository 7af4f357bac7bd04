package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns int32 = 10
	applicationName       = "easyfinance"
	pingAttempts          = 3
)

// NewConnectionPool opens the pool and pings it, retrying briefly so the service can start
// alongside a database container that is still booting.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is empty in configuration")
	}

	poolConfig, err := configurePool(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Connecting to PostgreSQL database...", "host", poolConfig.ConnConfig.Host, "max_conns", poolConfig.MaxConns)
	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := verifyConnection(ctx, dbpool, logger); err != nil {
		dbpool.Close()
		return nil, err
	}

	logger.Info("Successfully connected to PostgreSQL database.", "db", poolConfig.ConnConfig.Database)
	return dbpool, nil
}

// configurePool pins every session to UTC. Collection timestamps are stored as
// TIMESTAMPTZ and day boundaries are applied in Go using the reporting timezone.
func configurePool(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	poolConfig.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	params := poolConfig.ConnConfig.RuntimeParams
	params["timezone"] = "UTC"
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = applicationName
	}

	return poolConfig, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func verifyConnection(ctx context.Context, db pinger, logger *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.Ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}

		logger.Warn("Database ping failed", "attempt", attempt, "max_attempts", pingAttempts, "error", err)
		if attempt == pingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database on connect: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	return fmt.Errorf("failed to ping database on connect: %w", err)
}
