package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgroster/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
	ErrMemberAlreadyExists       = errors.New("member already exists")
	ErrBackendClosed             = errors.New("backend closed")
)

// Backend defines the durable engine beneath a Session.
// Reads only ever see committed rows; pending rows live in the Session until Save.
type Backend interface {
	// ListOrganizations returns every committed organization in backend-native order.
	ListOrganizations(ctx context.Context) ([]*models.Organization, error)

	// GetOrganization retrieves a committed organization by ID.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)

	// ListMembers returns the committed members of an organization in backend-native order.
	// An unknown organization yields an empty result, not an error.
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error)

	// Commit applies every change in the set atomically, or none of them.
	// Returns ErrOrganizationAlreadyExists / ErrMemberAlreadyExists on duplicate IDs
	// and ErrOrganizationNotFound when a member references an unknown organization.
	Commit(ctx context.Context, changes *ChangeSet) error

	// Close releases the backend's resources.
	Close() error
}

// ChangeSet holds inserts that have not yet been committed, in insertion order.
type ChangeSet struct {
	Organizations []*models.Organization
	Members       []*models.Member
}

// Len returns the number of pending inserts.
func (c *ChangeSet) Len() int {
	return len(c.Organizations) + len(c.Members)
}

// HasOrganization reports whether the set (not the backend) contains the organization.
func (c *ChangeSet) HasOrganization(orgID uuid.UUID) bool {
	for _, org := range c.Organizations {
		if org.OrgID == orgID {
			return true
		}
	}
	return false
}

func (c *ChangeSet) clone() *ChangeSet {
	out := &ChangeSet{
		Organizations: make([]*models.Organization, 0, len(c.Organizations)),
		Members:       make([]*models.Member, 0, len(c.Members)),
	}
	for _, org := range c.Organizations {
		out.Organizations = append(out.Organizations, CloneOrganization(org))
	}
	for _, member := range c.Members {
		out.Members = append(out.Members, CloneMember(member))
	}
	return out
}

// SaveError is returned by Session.Save when the backend rejects a commit.
// The pending changes stay in the session; nothing is rolled back.
type SaveError struct {
	Pending int
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %d pending changes: %v", e.Pending, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// CloneOrganization returns a deep copy so callers can't modify stored rows.
func CloneOrganization(org *models.Organization) *models.Organization {
	clone := *org
	clone.Title = cloneString(org.Title)
	clone.Owner = cloneString(org.Owner)
	return &clone
}

// CloneMember returns a deep copy so callers can't modify stored rows.
func CloneMember(member *models.Member) *models.Member {
	clone := *member
	clone.Name = cloneString(member.Name)
	return &clone
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
