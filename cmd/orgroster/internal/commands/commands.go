package commands

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/wolfeidau/orgroster/internal/logger"
	"github.com/wolfeidau/orgroster/internal/persistence"
	"github.com/wolfeidau/orgroster/internal/store"
	"github.com/wolfeidau/orgroster/internal/store/postgres"
	"github.com/wolfeidau/orgroster/internal/telemetry"
)

type Globals struct {
	Debug     bool
	LogLevel  string
	Version   string
	Store     StoreFlags
	Telemetry TelemetryFlags
	Out       io.Writer
}

type StoreFlags struct {
	InMemory bool               `help:"keep everything in memory, nothing is written to disk" default:"false" env:"ORGROSTER_IN_MEMORY"`
	Type     string             `help:"store type (memory, sqlite or postgres)" default:"sqlite" env:"ORGROSTER_STORE_TYPE" enum:"memory,sqlite,postgres"`
	Path     string             `help:"sqlite database file" default:"orgroster.db" env:"ORGROSTER_DB_PATH"`
	Postgres PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"2"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"1"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"true" env:"ORGROSTER_POSTGRES_AUTO_MIGRATE"`
}

type TelemetryFlags struct {
	Enabled     bool    `help:"export metrics and traces over OTLP" default:"false" env:"ORGROSTER_TELEMETRY"`
	SampleRatio float64 `help:"fraction of traces to keep" default:"1"`
}

func (s StoreFlags) config() persistence.Config {
	return persistence.Config{
		InMemory: s.InMemory,
		Type:     s.Type,
		Path:     s.Path,
		Postgres: postgres.Config{
			Pool: postgres.PoolConfig{
				ConnString:      s.Postgres.ConnString,
				MaxConns:        s.Postgres.MaxConns,
				MinConns:        s.Postgres.MinConns,
				MaxConnLifetime: s.Postgres.MaxConnLifetime,
				MaxConnIdleTime: s.Postgres.MaxConnIdleTime,
			},
			AutoMigrate: s.Postgres.AutoMigrate,
		},
	}
}

// app is everything a command needs once logging, telemetry and the store are up.
type app struct {
	ctx     context.Context
	session *store.Session
	close   func()
}

func setup(ctx context.Context, globals *Globals) (*app, error) {
	log, err := logger.Setup(logger.Config{Dev: globals.Debug, Level: globals.LogLevel})
	if err != nil {
		return nil, err
	}
	ctx = log.WithContext(ctx)

	log.Debug().Str("version", globals.Version).Msg("Starting")

	shutdown := func(context.Context) error { return nil }
	if globals.Telemetry.Enabled {
		shutdown, err = telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "orgroster",
			Version:     globals.Version,
			SampleRatio: globals.Telemetry.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(context.Context) error { return nil }
		}
	}

	session, err := persistence.Open(ctx, globals.Store.config())
	if err != nil {
		var initErr *persistence.InitError
		if errors.As(err, &initErr) {
			log.Error().Err(initErr.Err).Str("backend", initErr.Backend).Msg("Store unavailable")
		}
		_ = shutdown(ctx)
		return nil, err
	}

	return &app{
		ctx:     ctx,
		session: session,
		close: func() {
			if err := session.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close store")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		},
	}, nil
}
