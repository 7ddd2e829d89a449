package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/store"
)

var _ store.Backend = (*Backend)(nil)

// Backend implements store.Backend using in-memory storage.
// Nothing is written to disk - data is lost when the process exits.
type Backend struct {
	mu sync.RWMutex

	organizations map[uuid.UUID]*models.Organization // org_id -> Organization
	orgOrder      []uuid.UUID                        // commit order
	members       map[uuid.UUID]*models.Member       // member_id -> Member
	membersByOrg  map[uuid.UUID][]uuid.UUID          // org_id -> member_ids in commit order
	closed        bool
}

// NewBackend creates a new in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		organizations: make(map[uuid.UUID]*models.Organization),
		members:       make(map[uuid.UUID]*models.Member),
		membersByOrg:  make(map[uuid.UUID][]uuid.UUID),
	}
}

// ListOrganizations returns all organizations in commit order.
func (b *Backend) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, store.ErrBackendClosed
	}

	result := make([]*models.Organization, 0, len(b.orgOrder))
	for _, orgID := range b.orgOrder {
		result = append(result, store.CloneOrganization(b.organizations[orgID]))
	}

	return result, nil
}

// GetOrganization retrieves an organization by ID.
func (b *Backend) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, store.ErrBackendClosed
	}

	org, exists := b.organizations[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	return store.CloneOrganization(org), nil
}

// ListMembers returns the members of an organization in commit order.
func (b *Backend) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, store.ErrBackendClosed
	}

	ids := b.membersByOrg[orgID]
	result := make([]*models.Member, 0, len(ids))
	for _, memberID := range ids {
		result = append(result, store.CloneMember(b.members[memberID]))
	}

	return result, nil
}

// Commit validates the whole change set before applying any of it.
func (b *Backend) Commit(ctx context.Context, changes *store.ChangeSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return store.ErrBackendClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	seenOrgs := make(map[uuid.UUID]bool, len(changes.Organizations))
	for _, org := range changes.Organizations {
		if _, exists := b.organizations[org.OrgID]; exists || seenOrgs[org.OrgID] {
			return store.ErrOrganizationAlreadyExists
		}
		seenOrgs[org.OrgID] = true
	}

	seenMembers := make(map[uuid.UUID]bool, len(changes.Members))
	for _, m := range changes.Members {
		if _, exists := b.members[m.MemberID]; exists || seenMembers[m.MemberID] {
			return store.ErrMemberAlreadyExists
		}
		if _, exists := b.organizations[m.OrgID]; !exists && !seenOrgs[m.OrgID] {
			return store.ErrOrganizationNotFound
		}
		seenMembers[m.MemberID] = true
	}

	for _, org := range changes.Organizations {
		b.organizations[org.OrgID] = store.CloneOrganization(org)
		b.orgOrder = append(b.orgOrder, org.OrgID)
	}

	for _, m := range changes.Members {
		b.members[m.MemberID] = store.CloneMember(m)
		b.membersByOrg[m.OrgID] = append(b.membersByOrg[m.OrgID], m.MemberID)
	}

	return nil
}

// Close marks the backend closed and drops its contents.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.organizations = make(map[uuid.UUID]*models.Organization)
	b.orgOrder = nil
	b.members = make(map[uuid.UUID]*models.Member)
	b.membersByOrg = make(map[uuid.UUID][]uuid.UUID)

	return nil
}
