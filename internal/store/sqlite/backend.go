package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "orgroster.db"

var _ store.Backend = (*Backend)(nil)

// Backend implements store.Backend on a single SQLite file.
type Backend struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database file at path and applies migrations.
func Open(ctx context.Context, path string) (*Backend, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// a single writer keeps transactions on one connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().Str("path", path).Msg("Opened sqlite backend")

	return &Backend{db: db, path: path}, nil
}

// Path returns the database file path.
func (b *Backend) Path() string { return b.path }

// DB exposes the underlying sql.DB for tests.
func (b *Backend) DB() *sql.DB { return b.db }

// ListOrganizations returns all organizations in table order.
func (b *Backend) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT org_id, title, owner, created_at
		FROM organizations
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

// GetOrganization retrieves an organization by ID.
func (b *Backend) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT org_id, title, owner, created_at
		FROM organizations
		WHERE org_id = ?
	`, orgID.String())

	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, err
	}

	return org, nil
}

// ListMembers returns the members of an organization in table order.
func (b *Backend) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT member_id, org_id, name, created_at
		FROM members
		WHERE org_id = ?
	`, orgID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []*models.Member
	for rows.Next() {
		var (
			memberID, memberOrgID, createdAt string
			name                             sql.NullString
		)
		if err := rows.Scan(&memberID, &memberOrgID, &name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}

		m := &models.Member{Name: nullableString(name)}
		if m.MemberID, err = uuid.Parse(memberID); err != nil {
			return nil, fmt.Errorf("invalid member_id %q: %w", memberID, err)
		}
		if m.OrgID, err = uuid.Parse(memberOrgID); err != nil {
			return nil, fmt.Errorf("invalid org_id %q: %w", memberOrgID, err)
		}
		if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// Commit inserts the change set in one transaction.
func (b *Backend) Commit(ctx context.Context, changes *store.ChangeSet) (retErr error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, org := range changes.Organizations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO organizations (org_id, title, owner, created_at)
			VALUES (?, ?, ?, ?)
		`, org.OrgID.String(), org.Title, org.Owner, formatTime(org.CreatedAt))
		if err != nil {
			return mapSQLiteError(err, "failed to insert organization")
		}
	}

	for _, m := range changes.Members {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM organizations WHERE org_id = ?)`, m.OrgID.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check organization: %w", err)
		}
		if !exists {
			return store.ErrOrganizationNotFound
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO members (member_id, org_id, name, created_at)
			VALUES (?, ?, ?, ?)
		`, m.MemberID.String(), m.OrgID.String(), m.Name, formatTime(m.CreatedAt))
		if err != nil {
			return mapSQLiteError(err, "failed to insert member")
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.Debug().
		Int("organizations", len(changes.Organizations)).
		Int("members", len(changes.Members)).
		Msg("Committed changes")

	return nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*models.Organization, error) {
	var (
		orgID, createdAt string
		title, owner     sql.NullString
	)
	if err := row.Scan(&orgID, &title, &owner, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}

	org := &models.Organization{
		Title: nullableString(title),
		Owner: nullableString(owner),
	}

	var err error
	if org.OrgID, err = uuid.Parse(orgID); err != nil {
		return nil, fmt.Errorf("invalid org_id %q: %w", orgID, err)
	}
	if org.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}

	return org, nil
}

// mapSQLiteError maps constraint violations to store sentinel errors.
func mapSQLiteError(err error, msg string) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return fmt.Errorf("%s: %w", msg, err)
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		if strings.Contains(sqliteErr.Error(), "members.") {
			return store.ErrMemberAlreadyExists
		}
		return store.ErrOrganizationAlreadyExists
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return store.ErrOrganizationNotFound
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

// dsn builds a file URI for path. The path is escaped so '#' and '?' stay part of the
// file name instead of starting a fragment or query.
func dsn(path string) string {
	u := url.URL{
		Scheme:   "file",
		Path:     path,
		OmitHost: true,
		RawQuery: "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
	}
	return u.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
