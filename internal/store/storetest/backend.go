// Package storetest provides backend wrappers for exercising failure paths in tests.
package storetest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/store"
)

var _ store.Backend = (*FaultyBackend)(nil)

// FaultyBackend wraps a backend and returns injected errors instead of calling it.
type FaultyBackend struct {
	store.Backend

	mu        sync.Mutex
	commitErr error
	listErr   error
	commits   int
}

// NewFaultyBackend wraps next. With no faults set every call passes through.
func NewFaultyBackend(next store.Backend) *FaultyBackend {
	return &FaultyBackend{Backend: next}
}

// FailCommits makes every Commit return err until cleared with nil.
func (f *FaultyBackend) FailCommits(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitErr = err
}

// FailLists makes ListOrganizations and ListMembers return err until cleared with nil.
func (f *FaultyBackend) FailLists(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// Commits returns the number of Commit calls that reached the wrapped backend.
func (f *FaultyBackend) Commits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

func (f *FaultyBackend) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	if err := f.listFault(); err != nil {
		return nil, err
	}
	return f.Backend.ListOrganizations(ctx)
}

func (f *FaultyBackend) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	if err := f.listFault(); err != nil {
		return nil, err
	}
	return f.Backend.ListMembers(ctx, orgID)
}

func (f *FaultyBackend) Commit(ctx context.Context, changes *store.ChangeSet) error {
	f.mu.Lock()
	err := f.commitErr
	if err == nil {
		f.commits++
	}
	f.mu.Unlock()

	if err != nil {
		return err
	}
	return f.Backend.Commit(ctx, changes)
}

func (f *FaultyBackend) listFault() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listErr
}
