package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// A Session serialises every read and commit behind one mutex, so the backend never
// has more than one statement in flight. Two connections cover that statement plus a
// replacement while a recycled connection is being dialled.
const (
	defaultMaxConns        = 2
	defaultMinConns        = 1
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = 30 * time.Minute
)

// PoolConfig sizes the pgx pool behind the postgres backend.
// Zero values take the defaults above.
type PoolConfig struct {
	// ConnString is a postgres:// URL or key=value DSN.
	ConnString string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.MaxConns == 0 {
		c.MaxConns = defaultMaxConns
	}
	if c.MinConns == 0 {
		c.MinConns = defaultMinConns
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = defaultMaxConnLifetime
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = defaultMaxConnIdleTime
	}
	return c
}

// Validate checks a configuration after defaults have been applied.
func (c PoolConfig) Validate() error {
	switch {
	case c.ConnString == "":
		return errors.New("connection string is required")
	case c.MaxConns < 1:
		return fmt.Errorf("max conns must be at least 1, got %d", c.MaxConns)
	case c.MinConns < 0 || c.MinConns > c.MaxConns:
		return fmt.Errorf("min conns (%d) must be between 0 and max conns (%d)", c.MinConns, c.MaxConns)
	case c.MaxConnLifetime < 0 || c.MaxConnIdleTime < 0:
		return errors.New("connection lifetimes must not be negative")
	}
	return nil
}

func (c PoolConfig) pgxConfig() (*pgxpool.Config, error) {
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(c.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	cfg.MaxConns = c.MaxConns
	cfg.MinConns = c.MinConns
	cfg.MaxConnLifetime = c.MaxConnLifetime
	cfg.MaxConnIdleTime = c.MaxConnIdleTime

	return cfg, nil
}

// NewPool creates the pool and pings it so an unreachable server fails Open
// rather than the first Save.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pgxCfg, err := cfg.pgxConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", mapPostgresError(err))
	}

	return pool, nil
}
