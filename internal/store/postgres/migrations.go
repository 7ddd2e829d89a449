package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgroster/internal/store/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dialect executes each migration file as one simple-protocol batch.
type dialect struct {
	pool *pgxpool.Pool
}

func (d dialect) EnsureTable(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return mapPostgresError(err)
}

func (d dialect) Applied(ctx context.Context, version int) (bool, error) {
	var applied bool
	err := d.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
	).Scan(&applied)
	return applied, mapPostgresError(err)
}

func (d dialect) Apply(ctx context.Context, m migrate.Migration) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", mapPostgresError(err))
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", mapPostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", mapPostgresError(err))
	}
	return nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations, err := migrate.Load(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	applied, err := migrate.Run(ctx, dialect{pool: pool}, migrations)
	if err != nil {
		return err
	}

	log.Info().Int("applied", applied).Int("total", len(migrations)).Msg("Postgres schema up to date")
	return nil
}
