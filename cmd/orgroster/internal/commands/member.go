package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgroster/internal/models"
	"github.com/wolfeidau/orgroster/internal/repository"
	"github.com/wolfeidau/orgroster/internal/store"
)

type MemberCmd struct {
	Add  MemberAddCmd  `cmd:"" help:"Add a member to an organization"`
	List MemberListCmd `cmd:"" help:"List members of an organization"`
}

type MemberAddCmd struct {
	Org  string `help:"Organization ID" required:""`
	Name string `help:"Member name" required:""`
}

func (c *MemberAddCmd) Run(ctx context.Context, globals *Globals) error {
	rt, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer rt.close()

	repo, err := memberRepository(rt, c.Org)
	if err != nil {
		return err
	}

	unsubscribe := repo.Members().Subscribe(func(members []*models.Member) {
		printMembers(globals.Out, repo.Organization(), members)
	})
	defer unsubscribe()

	repo.AddMember(rt.ctx, c.Name)

	if rt.session.HasChanges() {
		return fmt.Errorf("member %q: %w", c.Name, errNotSaved)
	}

	return nil
}

type MemberListCmd struct {
	Org string `help:"Organization ID" required:""`
}

func (c *MemberListCmd) Run(ctx context.Context, globals *Globals) error {
	rt, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer rt.close()

	repo, err := memberRepository(rt, c.Org)
	if err != nil {
		return err
	}

	repo.FetchMembers(rt.ctx)
	if !repo.Members().Fetched() {
		return errors.New("failed to fetch members")
	}

	printMembers(globals.Out, repo.Organization(), repo.Members().Items())
	return nil
}

func memberRepository(rt *app, rawOrgID string) (*repository.MemberRepository, error) {
	orgID, err := uuid.Parse(rawOrgID)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id %q: %w", rawOrgID, err)
	}

	org, err := rt.session.Organization(rt.ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return nil, fmt.Errorf("organization %s: %w", orgID, err)
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	return repository.NewMemberRepository(rt.session, org), nil
}

func printMembers(w io.Writer, org *models.Organization, members []*models.Member) {
	fmt.Fprintf(w, "Members of %s (%d):\n", org.DisplayTitle(), len(members))

	if len(members) == 0 {
		fmt.Fprintln(w, "No members found.")
		return
	}

	fmt.Fprintf(w, "%-36s %-30s %-30s\n", "Member ID", "Name", "Organization")
	fmt.Fprintln(w, strings.Repeat("─", 98))

	for _, member := range members {
		fmt.Fprintf(w, "%-36s %-30s %-30s\n",
			member.MemberID.String(),
			truncate(member.DisplayName(), 30),
			truncate(org.DisplayTitle(), 30))
	}
}
