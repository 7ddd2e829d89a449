package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/persistence"
	"github.com/wolfeidau/orgroster/internal/store"
)

func testGlobals(t *testing.T) (*Globals, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	return &Globals{
		LogLevel: "error",
		Version:  "test",
		Store: StoreFlags{
			Type: persistence.BackendSQLite,
			Path: filepath.Join(t.TempDir(), "orgroster.db"),
		},
		Out: out,
	}, out
}

func storedOrganizations(t *testing.T, globals *Globals) []*models.Organization {
	t.Helper()

	session, err := persistence.Open(context.Background(), globals.Store.config())
	require.NoError(t, err)
	defer session.Close()

	orgs, err := session.Organizations(context.Background())
	require.NoError(t, err)
	return orgs
}

func TestOrgCreateAndList(t *testing.T) {
	ctx := context.Background()
	globals, out := testGlobals(t)

	create := &OrgCreateCmd{Title: "Acme", Owner: "Wile E."}
	require.NoError(t, create.Run(ctx, globals))
	require.Contains(t, out.String(), "Organizations (1):")
	require.Contains(t, out.String(), "Acme")

	out.Reset()
	require.NoError(t, (&OrgListCmd{}).Run(ctx, globals))
	require.Contains(t, out.String(), "Acme")
	require.Contains(t, out.String(), "Wile E.")

	orgs := storedOrganizations(t, globals)
	require.Len(t, orgs, 1)
	require.Contains(t, out.String(), orgs[0].OrgID.String())
}

func TestOrgListEmpty(t *testing.T) {
	globals, out := testGlobals(t)

	require.NoError(t, (&OrgListCmd{}).Run(context.Background(), globals))
	require.Contains(t, out.String(), "No organizations found.")
}

func TestMemberAddAndList(t *testing.T) {
	ctx := context.Background()
	globals, out := testGlobals(t)

	require.NoError(t, (&OrgCreateCmd{Title: "Acme", Owner: "Wile E."}).Run(ctx, globals))
	orgID := storedOrganizations(t, globals)[0].OrgID.String()

	for _, name := range []string{"bob", "carol", "alice"} {
		require.NoError(t, (&MemberAddCmd{Org: orgID, Name: name}).Run(ctx, globals))
	}

	out.Reset()
	require.NoError(t, (&MemberListCmd{Org: orgID}).Run(ctx, globals))

	listing := out.String()
	require.Contains(t, listing, "Members of Acme (3):")

	carol := bytes.Index(out.Bytes(), []byte("carol"))
	bob := bytes.Index(out.Bytes(), []byte("bob"))
	alice := bytes.Index(out.Bytes(), []byte("alice"))
	require.True(t, carol < bob && bob < alice, "members should be listed by name descending:\n%s", listing)
}

func TestMemberCommandsRejectUnknownOrganization(t *testing.T) {
	ctx := context.Background()
	globals, _ := testGlobals(t)

	err := (&MemberListCmd{Org: uuid.NewString()}).Run(ctx, globals)
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)

	err = (&MemberAddCmd{Org: "not-a-uuid", Name: "alice"}).Run(ctx, globals)
	require.ErrorContains(t, err, "invalid organization id")
}

func TestSetupReturnsInitError(t *testing.T) {
	globals, _ := testGlobals(t)
	globals.Store.Type = persistence.BackendPostgres

	_, err := setup(context.Background(), globals)

	var initErr *persistence.InitError
	require.ErrorAs(t, err, &initErr)
	require.Equal(t, persistence.BackendPostgres, initErr.Backend)
}

func TestSetupInvalidLogLevel(t *testing.T) {
	globals, _ := testGlobals(t)
	globals.LogLevel = "loud"

	_, err := setup(context.Background(), globals)
	require.ErrorContains(t, err, "invalid log level")
}

func TestStoreFlagsConfig(t *testing.T) {
	flags := StoreFlags{
		InMemory: true,
		Type:     persistence.BackendPostgres,
		Path:     "ignored.db",
		Postgres: PostgresStoreFlags{
			ConnString:  "postgres://localhost/orgroster",
			MaxConns:    8,
			MinConns:    2,
			AutoMigrate: true,
		},
	}

	cfg := flags.config()
	require.True(t, cfg.InMemory)
	require.Equal(t, "postgres://localhost/orgroster", cfg.Postgres.Pool.ConnString)
	require.Equal(t, int32(8), cfg.Postgres.Pool.MaxConns)
	require.Equal(t, int32(2), cfg.Postgres.Pool.MinConns)
	require.True(t, cfg.Postgres.AutoMigrate)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "Acme", truncate("Acme", 30))
	require.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))

	accented := strings.Repeat("é", 40)
	got := truncate(accented, 30)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, 30, utf8.RuneCountInString(got))
	require.Equal(t, strings.Repeat("é", 27)+"...", got)
}

func TestPrintOrganizationsMultiByteTitles(t *testing.T) {
	title := strings.Repeat("é", 40)
	owner := strings.Repeat("ø", 25)
	org, err := models.NewOrganization(title, owner)
	require.NoError(t, err)

	var buf bytes.Buffer
	printOrganizations(&buf, []*models.Organization{org})
	require.True(t, utf8.Valid(buf.Bytes()), "table output must be valid UTF-8")

	member, err := models.NewMember(org.OrgID, strings.Repeat("ü", 35))
	require.NoError(t, err)

	buf.Reset()
	printMembers(&buf, org, []*models.Member{member})
	require.True(t, utf8.Valid(buf.Bytes()), "table output must be valid UTF-8")
}
