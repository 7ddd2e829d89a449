package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents an organization that members are grouped under.
// Title and Owner are optional display fields, nil when never set.
type Organization struct {
	OrgID     uuid.UUID // UUIDv7
	Title     *string
	Owner     *string
	CreatedAt time.Time
}

// NewOrganization allocates an organization with a fresh UUIDv7 identifier.
func NewOrganization(title, owner string) (*Organization, error) {
	orgID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Organization{
		OrgID:     orgID,
		Title:     &title,
		Owner:     &owner,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DisplayTitle returns the title, or an empty string when unset.
func (o *Organization) DisplayTitle() string {
	return deref(o.Title)
}

// DisplayOwner returns the owner, or an empty string when unset.
func (o *Organization) DisplayOwner() string {
	return deref(o.Owner)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
