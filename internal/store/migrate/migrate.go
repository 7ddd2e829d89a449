// Package migrate applies versioned SQL files in order and records each applied
// version in a schema_migrations table. The database-specific statements live behind
// Dialect so the sqlite and postgres backends share one loader and one run loop.
package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Migration is one forward-only schema change loaded from "<version>_<name>.sql".
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Dialect is the part of a migration run that differs between databases.
type Dialect interface {
	// EnsureTable creates schema_migrations if it does not exist.
	EnsureTable(ctx context.Context) error

	// Applied reports whether version is already recorded.
	Applied(ctx context.Context, version int) (bool, error)

	// Apply executes the migration and records its version in a single transaction.
	Apply(ctx context.Context, m Migration) error
}

// Load reads every .sql file in dir, ordered by the numeric version prefix.
// Files without a "<version>_" prefix are skipped with a warning.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			log.Warn().Str("file", entry.Name()).Msg("Skipping migration file with invalid name format")
			continue
		}

		version, err := strconv.Atoi(prefix)
		if err != nil {
			log.Warn().Str("file", entry.Name()).Err(err).Msg("Skipping migration file with invalid version number")
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{Version: version, Name: entry.Name(), SQL: string(content)})
	}

	slices.SortFunc(migrations, func(a, b Migration) int {
		return a.Version - b.Version
	})

	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s",
				migrations[i].Version, migrations[i-1].Name, migrations[i].Name)
		}
	}

	return migrations, nil
}

// Run applies every migration the dialect has not recorded yet and returns how many
// were applied. It stops at the first failure; earlier migrations stay applied.
func Run(ctx context.Context, d Dialect, migrations []Migration) (int, error) {
	if err := d.EnsureTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		done, err := d.Applied(ctx, m.Version)
		if err != nil {
			return applied, fmt.Errorf("migration %s: failed to check status: %w", m.Name, err)
		}
		if done {
			log.Debug().Int("version", m.Version).Str("name", m.Name).Msg("Migration already applied, skipping")
			continue
		}

		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applying migration")

		if err := d.Apply(ctx, m); err != nil {
			return applied, fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
		applied++
	}

	return applied, nil
}

// SplitStatements breaks a migration into individual statements for drivers that
// execute one statement per call. Semicolons inside literals or triggers are not supported.
func SplitStatements(sql string) []string {
	var stmts []string
	for _, part := range strings.Split(sql, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
