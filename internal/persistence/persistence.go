// Package persistence opens the configured backend and hands back the live session.
package persistence

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgroster/internal/store"
	"github.com/wolfeidau/orgroster/internal/store/memory"
	"github.com/wolfeidau/orgroster/internal/store/postgres"
	"github.com/wolfeidau/orgroster/internal/store/sqlite"
)

// Backend types accepted by Config.Type.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config selects and configures the backend.
type Config struct {
	// InMemory forces the memory backend regardless of Type; nothing touches disk.
	InMemory bool

	// Type is one of memory, sqlite or postgres. Default: sqlite
	Type string

	// Path is the sqlite database file. Default: orgroster.db
	Path string

	// Postgres configures the postgres backend.
	Postgres postgres.Config
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.InMemory {
		c.Type = BackendMemory
	}
	if c.Type == "" {
		c.Type = BackendSQLite
	}
	if c.Type == BackendSQLite && c.Path == "" {
		c.Path = sqlite.DefaultPath
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Type {
	case BackendMemory, BackendSQLite:
		return nil
	case BackendPostgres:
		if c.Postgres.Pool.ConnString == "" {
			return fmt.Errorf("postgres connection string is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend type %q", c.Type)
	}
}

// InitError reports that the store could not be opened or migrated.
// The caller decides whether to abort or continue without storage.
type InitError struct {
	Backend string
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialise %s store: %v", e.Backend, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Open opens the configured backend and returns a session over it.
// Every failure is returned as *InitError.
func Open(ctx context.Context, cfg Config) (*store.Session, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Backend: cfg.Type, Err: err}
	}

	var (
		backend store.Backend
		err     error
	)

	switch cfg.Type {
	case BackendMemory:
		backend = memory.NewBackend()
	case BackendSQLite:
		backend, err = sqlite.Open(ctx, cfg.Path)
	case BackendPostgres:
		backend, err = postgres.Open(ctx, &cfg.Postgres)
	}
	if err != nil {
		return nil, &InitError{Backend: cfg.Type, Err: err}
	}

	log.Info().Str("backend", cfg.Type).Msg("Store opened")

	return store.NewSession(backend, cfg.Type), nil
}
