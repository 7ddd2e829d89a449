package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Session is the live view over a Backend through which all reads and writes flow.
// Inserts are held as pending changes until Save commits them. Reads return committed
// rows followed by pending rows, so uncommitted inserts are visible immediately.
type Session struct {
	mu sync.Mutex

	backend Backend
	name    string
	pending ChangeSet
}

// NewSession creates a session over the given backend.
// name identifies the backend in metrics and logs (e.g. "memory", "sqlite").
func NewSession(backend Backend, name string) *Session {
	return &Session{
		backend: backend,
		name:    name,
	}
}

// Name returns the backend name this session was opened with.
func (s *Session) Name() string {
	return s.name
}

// InsertOrganization registers a new organization in the session.
func (s *Session) InsertOrganization(org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending.HasOrganization(org.OrgID) {
		return ErrOrganizationAlreadyExists
	}

	s.pending.Organizations = append(s.pending.Organizations, CloneOrganization(org))
	return nil
}

// InsertMember registers a new member in the session.
// The owning organization is checked on Save, not here.
func (s *Session) InsertMember(member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.pending.Members {
		if m.MemberID == member.MemberID {
			return ErrMemberAlreadyExists
		}
	}

	s.pending.Members = append(s.pending.Members, CloneMember(member))
	return nil
}

// Organizations returns every organization visible in the session.
func (s *Session) Organizations(ctx context.Context) ([]*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orgs, err := s.backend.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}

	for _, org := range s.pending.Organizations {
		orgs = append(orgs, CloneOrganization(org))
	}

	return orgs, nil
}

// Organization retrieves one organization, pending or committed.
// Returns ErrOrganizationNotFound if it is in neither.
func (s *Session) Organization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, org := range s.pending.Organizations {
		if org.OrgID == orgID {
			return CloneOrganization(org), nil
		}
	}

	return s.backend.GetOrganization(ctx, orgID)
}

// Members returns every member of the organization visible in the session, unsorted.
func (s *Session) Members(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.backend.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}

	for _, m := range s.pending.Members {
		if m.OrgID == orgID {
			members = append(members, CloneMember(m))
		}
	}

	return members, nil
}

// HasChanges reports whether there are inserts waiting for Save.
func (s *Session) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending.Len() > 0
}

// Save commits all pending changes to the backend as a single unit.
// On failure a *SaveError is returned and the pending changes are kept, so the
// session and the backend disagree until a later Save succeeds or Rollback is called.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending.Len() == 0 {
		return nil
	}

	metrics := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("backend", s.name))
	started := time.Now()

	changes := s.pending.clone()
	err := s.backend.Commit(ctx, changes)

	metrics.SavesTotal.Add(ctx, 1, attrs)
	metrics.SaveDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)

	if err != nil {
		metrics.SaveErrorsTotal.Add(ctx, 1, attrs)
		return &SaveError{Pending: changes.Len(), Err: err}
	}

	s.pending = ChangeSet{}
	return nil
}

// Rollback discards all pending changes.
func (s *Session) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = ChangeSet{}
}

// Close closes the underlying backend. Pending changes are discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = ChangeSet{}
	return s.backend.Close()
}
