package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/store"
)

func openTestBackend(t *testing.T, path string) *Backend {
	t.Helper()
	b, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newOrg(t *testing.T, title, owner string) *models.Organization {
	t.Helper()
	org, err := models.NewOrganization(title, owner)
	require.NoError(t, err)
	return org
}

func newMember(t *testing.T, orgID uuid.UUID, name string) *models.Member {
	t.Helper()
	m, err := models.NewMember(orgID, name)
	require.NoError(t, err)
	return m
}

func TestOpen_AppliesMigrations(t *testing.T) {
	b := openTestBackend(t, filepath.Join(t.TempDir(), "nested", "roster.db"))

	for _, table := range []string{"organizations", "members", "schema_migrations"} {
		var name string
		err := b.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "missing table %s", table)
	}

	var count int
	require.NoError(t, b.DB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")

	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openTestBackend(t, path)
	var count int
	require.NoError(t, second.DB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestBackend_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.db")

	b, err := Open(ctx, path)
	require.NoError(t, err)

	org := newOrg(t, "Acme", "Jane")
	bob := newMember(t, org.OrgID, "Bob")
	require.NoError(t, b.Commit(ctx, &store.ChangeSet{
		Organizations: []*models.Organization{org},
		Members:       []*models.Member{bob},
	}))
	require.NoError(t, b.Close())

	reloaded := openTestBackend(t, path)

	orgs, err := reloaded.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	require.Equal(t, org.OrgID, orgs[0].OrgID)
	require.Equal(t, "Acme", orgs[0].DisplayTitle())
	require.Equal(t, "Jane", orgs[0].DisplayOwner())
	require.True(t, org.CreatedAt.Equal(orgs[0].CreatedAt))

	members, err := reloaded.ListMembers(ctx, org.OrgID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, bob.MemberID, members[0].MemberID)
	require.Equal(t, org.OrgID, members[0].OrgID)
	require.Equal(t, "Bob", members[0].DisplayName())
}

func TestBackend_NullableColumns(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t, filepath.Join(t.TempDir(), "roster.db"))

	org := &models.Organization{OrgID: uuid.Must(uuid.NewV7())}
	member := &models.Member{MemberID: uuid.Must(uuid.NewV7()), OrgID: org.OrgID}
	require.NoError(t, b.Commit(ctx, &store.ChangeSet{
		Organizations: []*models.Organization{org},
		Members:       []*models.Member{member},
	}))

	got, err := b.GetOrganization(ctx, org.OrgID)
	require.NoError(t, err)
	require.Nil(t, got.Title)
	require.Nil(t, got.Owner)

	members, err := b.ListMembers(ctx, org.OrgID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Nil(t, members[0].Name)
	require.Equal(t, "", members[0].DisplayName())
}

func TestBackend_EmptyStringsRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t, filepath.Join(t.TempDir(), "roster.db"))

	org := newOrg(t, "", "")
	require.NoError(t, b.Commit(ctx, &store.ChangeSet{Organizations: []*models.Organization{org}}))

	got, err := b.GetOrganization(ctx, org.OrgID)
	require.NoError(t, err)
	require.NotNil(t, got.Title)
	require.Equal(t, "", *got.Title)
}

func TestBackend_CommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t, filepath.Join(t.TempDir(), "roster.db"))

	t.Run("member of unknown organization", func(t *testing.T) {
		org := newOrg(t, "Acme", "Jane")
		err := b.Commit(ctx, &store.ChangeSet{
			Organizations: []*models.Organization{org},
			Members:       []*models.Member{newMember(t, uuid.New(), "Orphan")},
		})
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)

		_, err = b.GetOrganization(ctx, org.OrgID)
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("duplicate organization", func(t *testing.T) {
		org := newOrg(t, "Acme", "Jane")
		require.NoError(t, b.Commit(ctx, &store.ChangeSet{Organizations: []*models.Organization{org}}))

		err := b.Commit(ctx, &store.ChangeSet{Organizations: []*models.Organization{org}})
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
	})

	t.Run("duplicate member", func(t *testing.T) {
		org := newOrg(t, "Globex", "Hank")
		bob := newMember(t, org.OrgID, "Bob")
		err := b.Commit(ctx, &store.ChangeSet{
			Organizations: []*models.Organization{org},
			Members:       []*models.Member{bob, bob},
		})
		require.ErrorIs(t, err, store.ErrMemberAlreadyExists)

		members, err := b.ListMembers(ctx, org.OrgID)
		require.NoError(t, err)
		require.Empty(t, members)
	})
}

func TestBackend_GetOrganizationNotFound(t *testing.T) {
	b := openTestBackend(t, filepath.Join(t.TempDir(), "roster.db"))
	_, err := b.GetOrganization(context.Background(), uuid.New())
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)
}

func TestOpen_PathWithURIReservedCharacters(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"roster#1.db", "roster?mode=ro.db", "team roster.db", "100%.db"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			b, err := Open(ctx, path)
			require.NoError(t, err)

			org := newOrg(t, "Acme", "Jane")
			require.NoError(t, b.Commit(ctx, &store.ChangeSet{Organizations: []*models.Organization{org}}))
			require.NoError(t, b.Close())

			_, err = os.Stat(path)
			require.NoError(t, err, "database should be written to the configured path")

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			require.Len(t, entries, 1)
			require.Equal(t, name, entries[0].Name())

			reopened := openTestBackend(t, path)
			orgs, err := reopened.ListOrganizations(ctx)
			require.NoError(t, err)
			require.Len(t, orgs, 1)
			require.Equal(t, org.OrgID, orgs[0].OrgID)
		})
	}
}

func TestDSN(t *testing.T) {
	const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	require.Equal(t, "file:orgroster.db"+pragmas, dsn("orgroster.db"))
	require.Equal(t, "file:/var/lib/orgroster/roster.db"+pragmas, dsn("/var/lib/orgroster/roster.db"))
	require.Equal(t, "file:/tmp/roster%231.db"+pragmas, dsn("/tmp/roster#1.db"))
	require.Equal(t, "file:/tmp/a%3Fb.db"+pragmas, dsn("/tmp/a?b.db"))
}
