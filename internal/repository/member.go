package repository

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/observable"
	"github.com/wolfeidau/orgroster/internal/store"
	"github.com/wolfeidau/orgroster/internal/telemetry"
)

// MemberRepository lists and creates the members of one organization.
// The binding is fixed at construction.
type MemberRepository struct {
	session      *store.Session
	organization *models.Organization
	members      *observable.List[*models.Member]
}

// NewMemberRepository creates a repository bound to org.
func NewMemberRepository(session *store.Session, org *models.Organization) *MemberRepository {
	return &MemberRepository{
		session:      session,
		organization: store.CloneOrganization(org),
		members:      observable.NewList[*models.Member](),
	}
}

// Organization returns the organization this repository is bound to.
func (r *MemberRepository) Organization() *models.Organization {
	return store.CloneOrganization(r.organization)
}

// Members returns the observable list mirroring the last successful fetch.
func (r *MemberRepository) Members() *observable.List[*models.Member] {
	return r.members
}

// FetchMembers reloads the bound organization's members sorted by name descending
// and publishes the result. On failure the previous snapshot is kept.
func (r *MemberRepository) FetchMembers(ctx context.Context) []*models.Member {
	members, err := r.session.Members(ctx, r.organization.OrgID)
	if err != nil {
		telemetry.GetMetrics().FetchErrorsTotal.Add(ctx, 1)
		zerolog.Ctx(ctx).Error().Err(err).
			Str("org_id", r.organization.OrgID.String()).
			Msg("failed to fetch members")
		return r.members.Items()
	}

	SortMembers(members)
	r.members.Replace(members)
	return r.members.Items()
}

// AddMember registers a new member of the bound organization, saves the session
// and reloads the list.
func (r *MemberRepository) AddMember(ctx context.Context, name string) {
	log := zerolog.Ctx(ctx).With().Str("org_id", r.organization.OrgID.String()).Logger()

	member, err := models.NewMember(r.organization.OrgID, name)
	if err != nil {
		log.Error().Err(err).Msg("failed to allocate member")
		return
	}

	if err := r.session.InsertMember(member); err != nil {
		log.Error().Err(err).Str("member_id", member.MemberID.String()).Msg("failed to register member")
		return
	}

	if err := r.session.Save(ctx); err != nil {
		// the session keeps the pending member; the list is left as it was
		log.Error().Err(err).Str("member_id", member.MemberID.String()).Msg("failed to save member")
		return
	}

	telemetry.GetMetrics().MembersCreatedTotal.Add(ctx, 1)
	log.Debug().Str("member_id", member.MemberID.String()).Msg("Added member")

	r.FetchMembers(ctx)
}

// SortMembers orders members by display name, descending. Equal names fall back to
// MemberID ascending, which for UUIDv7 is creation order.
func SortMembers(members []*models.Member) {
	slices.SortFunc(members, func(a, b *models.Member) int {
		if c := strings.Compare(b.DisplayName(), a.DisplayName()); c != 0 {
			return c
		}
		return bytes.Compare(a.MemberID[:], b.MemberID[:])
	})
}
