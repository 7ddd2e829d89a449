package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/store"
)

var _ store.Backend = (*Backend)(nil)

// Config holds configuration for the PostgreSQL backend.
type Config struct {
	Pool PoolConfig

	// AutoMigrate runs the embedded migrations when the backend is opened.
	AutoMigrate bool
}

// Backend implements store.Backend using PostgreSQL.
type Backend struct {
	pool *pgxpool.Pool
}

// Open creates the connection pool and, when enabled, migrates the schema.
func Open(ctx context.Context, cfg *Config) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres config is required")
	}

	pool, err := NewPool(ctx, cfg.Pool)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return NewBackend(pool), nil
}

// NewBackend creates a PostgreSQL-backed store over an existing pool.
func NewBackend(pool *pgxpool.Pool) *Backend {
	return &Backend{
		pool: pool,
	}
}

// ListOrganizations returns all organizations in table order.
func (b *Backend) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	query := `
		SELECT org_id, title, owner, created_at
		FROM organizations
	`

	rows, err := b.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		var org models.Organization
		err := rows.Scan(
			&org.OrgID,
			&org.Title,
			&org.Owner,
			&org.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, &org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

// GetOrganization retrieves an organization by ID.
func (b *Backend) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	query := `
		SELECT org_id, title, owner, created_at
		FROM organizations
		WHERE org_id = $1
	`

	var org models.Organization
	err := b.pool.QueryRow(ctx, query, orgID).Scan(
		&org.OrgID,
		&org.Title,
		&org.Owner,
		&org.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", mapPostgresError(err))
	}

	return &org, nil
}

// ListMembers returns the members of an organization in table order.
func (b *Backend) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	query := `
		SELECT member_id, org_id, name, created_at
		FROM members
		WHERE org_id = $1
	`

	rows, err := b.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		var m models.Member
		err := rows.Scan(
			&m.MemberID,
			&m.OrgID,
			&m.Name,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// Commit inserts the change set in one transaction.
func (b *Backend) Commit(ctx context.Context, changes *store.ChangeSet) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	for _, org := range changes.Organizations {
		_, err := tx.Exec(ctx, `
			INSERT INTO organizations (org_id, title, owner, created_at)
			VALUES ($1, $2, $3, $4)
		`, org.OrgID, org.Title, org.Owner, org.CreatedAt)
		if err != nil {
			return mapPostgresError(err)
		}
	}

	for _, m := range changes.Members {
		_, err := tx.Exec(ctx, `
			INSERT INTO members (member_id, org_id, name, created_at)
			VALUES ($1, $2, $3, $4)
		`, m.MemberID, m.OrgID, m.Name, m.CreatedAt)
		if err != nil {
			return mapPostgresError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", mapPostgresError(err))
	}

	log.Debug().
		Int("organizations", len(changes.Organizations)).
		Int("members", len(changes.Members)).
		Msg("Committed changes")

	return nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
