package models

import (
	"time"

	"github.com/google/uuid"
)

// Member represents a person belonging to exactly one organization.
// Membership is recorded by OrgID rather than by a collection on Organization.
type Member struct {
	MemberID  uuid.UUID // UUIDv7
	OrgID     uuid.UUID // UUIDv7, FK to organizations
	Name      *string
	CreatedAt time.Time
}

// NewMember allocates a member of the given organization with a fresh UUIDv7 identifier.
func NewMember(orgID uuid.UUID, name string) (*Member, error) {
	memberID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Member{
		MemberID:  memberID,
		OrgID:     orgID,
		Name:      &name,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DisplayName returns the name, or an empty string when unset.
func (m *Member) DisplayName() string {
	return deref(m.Name)
}
