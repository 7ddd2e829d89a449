// Package repository exposes fetch and create operations for organizations and their
// members over a store.Session, publishing results through observable lists.
//
// Repositories never return errors. Fetch failures keep the previous snapshot and save
// failures skip the refresh; both are logged through the context logger.
package repository

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/observable"
	"github.com/wolfeidau/orgroster/internal/store"
	"github.com/wolfeidau/orgroster/internal/telemetry"
)

// OrganizationRepository lists and creates organizations.
type OrganizationRepository struct {
	session       *store.Session
	organizations *observable.List[*models.Organization]
}

// NewOrganizationRepository creates a repository over session. Nothing is fetched
// until FetchAll is called.
func NewOrganizationRepository(session *store.Session) *OrganizationRepository {
	return &OrganizationRepository{
		session:       session,
		organizations: observable.NewList[*models.Organization](),
	}
}

// Organizations returns the observable list mirroring the last successful fetch.
func (r *OrganizationRepository) Organizations() *observable.List[*models.Organization] {
	return r.organizations
}

// FetchAll reloads every organization in store order and publishes the result.
// On failure the previous snapshot is kept. The current snapshot is returned either way.
func (r *OrganizationRepository) FetchAll(ctx context.Context) []*models.Organization {
	orgs, err := r.session.Organizations(ctx)
	if err != nil {
		telemetry.GetMetrics().FetchErrorsTotal.Add(ctx, 1)
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to fetch organizations")
		return r.organizations.Items()
	}

	r.organizations.Replace(orgs)
	return r.organizations.Items()
}

// Create registers a new organization, saves the session and reloads the list.
// No validation is applied; empty title and owner are stored as empty strings.
func (r *OrganizationRepository) Create(ctx context.Context, title, owner string) {
	log := zerolog.Ctx(ctx)

	org, err := models.NewOrganization(title, owner)
	if err != nil {
		log.Error().Err(err).Msg("failed to allocate organization")
		return
	}

	if err := r.session.InsertOrganization(org); err != nil {
		log.Error().Err(err).Str("org_id", org.OrgID.String()).Msg("failed to register organization")
		return
	}

	if err := r.session.Save(ctx); err != nil {
		// the session keeps the pending organization; the list is left as it was
		log.Error().Err(err).Str("org_id", org.OrgID.String()).Msg("failed to save organization")
		return
	}

	telemetry.GetMetrics().OrganizationsCreatedTotal.Add(ctx, 1)
	log.Debug().Str("org_id", org.OrgID.String()).Msg("Created organization")

	r.FetchAll(ctx)
}
