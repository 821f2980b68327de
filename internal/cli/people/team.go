package people

import (
	"strings"

	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
)

type TeamListCmd struct{}

func (c *TeamListCmd) Run(ctx *cli.Context) error {
	r, err := ctx.Service.LoadRoster(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(r.Teams) == 0 {
		ctx.Printf("No teams yet. Create one with 'rollcall team set'.\n")
		return nil
	}
	names := make(map[string]string, len(r.People))
	for _, p := range r.People {
		names[p.ID] = p.Name
	}
	for _, t := range r.Teams {
		members := make([]string, len(t.Members))
		for i, id := range t.Members {
			members[i] = id
			if name, ok := names[id]; ok {
				members[i] = name
			}
		}
		ctx.Printf("  %-20s %s\n", t.Name, strings.Join(members, ", "))
	}
	return nil
}

type TeamSetCmd struct {
	Name    string   `arg:"" help:"Team name."`
	Members []string `arg:"" optional:"" help:"Members by id or name. No members removes the team."`
}

func (c *TeamSetCmd) Run(ctx *cli.Context) error {
	r, err := ctx.Service.LoadRoster(ctx.Ctx)
	if err != nil {
		return err
	}

	team := models.Team{Name: strings.TrimSpace(c.Name)}
	for _, query := range c.Members {
		p, err := roster.Find(r.People, query)
		if err != nil {
			return err
		}
		team.Members = append(team.Members, p.ID)
	}

	teams := roster.SetTeam(r.Teams, team)
	if err := roster.ValidateTeams(r.People, teams); err != nil {
		return err
	}
	_, err = ctx.Service.SaveRoster(ctx.Ctx, r.People, teams)
	if err := ctx.Saved(err); err != nil {
		return err
	}
	if len(team.Members) == 0 {
		ctx.Printf("Removed team %s.\n", team.Name)
	} else {
		ctx.Printf("Saved team %s with %d members.\n", team.Name, len(team.Members))
	}
	return nil
}
