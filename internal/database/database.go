package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool interface for database connection pool operations
type Pool interface {
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig sizes the connection pool
type PoolConfig struct {
	MaxConns    int
	MinConns    int
	MaxConnIdle time.Duration
	MaxConnLife time.Duration
}

// NewPool creates a new PostgreSQL connection pool and verifies it with a ping
func NewPool(ctx context.Context, connString string, cfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToParseConnString, err)
	}

	config.MaxConns = clampInt32(cfg.MaxConns)
	config.MinConns = clampInt32(cfg.MinConns)
	if config.MinConns <= 0 {
		config.MinConns = DefaultMinConnections
	}
	if config.MinConns > config.MaxConns {
		config.MinConns = config.MaxConns
	}
	config.MaxConnLifetime = cfg.MaxConnLife
	config.MaxConnIdleTime = cfg.MaxConnIdle

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCreatePool, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToPingDatabase, err)
	}

	slog.Default().Info(LogMsgSuccessfullyConnectedToDatabase,
		"max_conns", config.MaxConns, "min_conns", config.MinConns)
	return pool, nil
}

func clampInt32(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < 1 {
		return DefaultMaxConnections
	}
	return int32(v)
}
