package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/openduel/internal/logger"
)

// Pool is the subset of pgxpool the engine's health checks depend on
type Pool interface {
	Ping(ctx context.Context) error
	Close()
}

// Config carries the connection pool tuning applied at boot
type Config struct {
	ConnString  string
	MaxConns    int32
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// NewPool opens a PostgreSQL connection pool and verifies it answers before
// the engine starts accepting series traffic.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToParseConnString, err)
	}

	pc.MaxConns = cfg.MaxConns
	if pc.MaxConns < DefaultMinConnections {
		pc.MaxConns = DefaultMaxConnections
	}
	pc.MinConns = DefaultMinConnections
	pc.MaxConnLifetime = cfg.MaxLifetime
	pc.MaxConnIdleTime = cfg.MaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCreatePool, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToPingDatabase, err)
	}

	logger.FromContext(ctx).Info(LogMsgSuccessfullyConnectedToDatabase,
		"max_conns", pc.MaxConns)
	return pool, nil
}
