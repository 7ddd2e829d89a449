package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/repository"
)

var errNotSaved = errors.New("changes were not saved")

type OrgCmd struct {
	Create OrgCreateCmd `cmd:"" help:"Create an organization"`
	List   OrgListCmd   `cmd:"" help:"List organizations"`
}

type OrgCreateCmd struct {
	Title string `help:"Organization title" required:""`
	Owner string `help:"Organization owner" required:""`
}

func (c *OrgCreateCmd) Run(ctx context.Context, globals *Globals) error {
	rt, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer rt.close()

	repo := repository.NewOrganizationRepository(rt.session)
	unsubscribe := repo.Organizations().Subscribe(func(orgs []*models.Organization) {
		printOrganizations(globals.Out, orgs)
	})
	defer unsubscribe()

	repo.Create(rt.ctx, c.Title, c.Owner)

	// repositories only log; a pending change left behind means the save failed
	if rt.session.HasChanges() {
		return fmt.Errorf("organization %q: %w", c.Title, errNotSaved)
	}

	return nil
}

type OrgListCmd struct{}

func (c *OrgListCmd) Run(ctx context.Context, globals *Globals) error {
	rt, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer rt.close()

	repo := repository.NewOrganizationRepository(rt.session)
	repo.FetchAll(rt.ctx)
	if !repo.Organizations().Fetched() {
		return errors.New("failed to fetch organizations")
	}

	printOrganizations(globals.Out, repo.Organizations().Items())
	return nil
}

func printOrganizations(w io.Writer, orgs []*models.Organization) {
	fmt.Fprintf(w, "Organizations (%d):\n", len(orgs))

	if len(orgs) == 0 {
		fmt.Fprintln(w, "No organizations found.")
		return
	}

	fmt.Fprintf(w, "%-36s %-30s %-20s %-20s\n", "Org ID", "Title", "Owner", "Created At")
	fmt.Fprintln(w, strings.Repeat("─", 109))

	for _, org := range orgs {
		fmt.Fprintf(w, "%-36s %-30s %-20s %-20s\n",
			org.OrgID.String(),
			truncate(org.DisplayTitle(), 30),
			truncate(org.DisplayOwner(), 20),
			org.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
