package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/wolfeidau/orgroster/internal/store/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dialect runs migrations one statement at a time; the driver rejects multi-statement Exec.
type dialect struct {
	db *sql.DB
}

func (d dialect) EnsureTable(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (d dialect) Applied(ctx context.Context, version int) (bool, error) {
	var applied bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)`, version,
	).Scan(&applied)
	return applied, err
}

func (d dialect) Apply(ctx context.Context, m migrate.Migration) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is safe to call after commit

	for _, stmt := range migrate.SplitStatements(m.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	migrations, err := migrate.Load(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	_, err = migrate.Run(ctx, dialect{db: db}, migrations)
	return err
}
