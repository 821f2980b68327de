package people

import (
	"fmt"
	"io"
	"strings"

	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
)

type PeopleListCmd struct{}

func (c *PeopleListCmd) Run(ctx *cli.Context) error {
	r, err := ctx.Service.LoadRoster(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(r.People) == 0 {
		ctx.Printf("No people yet. Add some with 'rollcall people add'.\n")
		return nil
	}
	printPeople(ctx, r.People)
	return nil
}

type PeopleSetCmd struct {
	Names []string `arg:"" optional:"" help:"Full people list, in order. Read one name per line from stdin when omitted."`
	Yes   bool     `short:"y" help:"Do not ask before removing people."`
}

func (c *PeopleSetCmd) Run(ctx *cli.Context) error {
	names := c.Names
	if len(names) == 0 {
		data, err := io.ReadAll(ctx.In)
		if err != nil {
			return fmt.Errorf("failed to read names: %w", err)
		}
		names = roster.ParseNames(string(data))
	}

	r, err := ctx.Service.LoadRoster(ctx.Ctx)
	if err != nil {
		return err
	}
	people := roster.BuildPeopleList(r.People, names)

	if removed := removedNames(r.People, people); len(removed) > 0 && !c.Yes {
		ctx.Printf("This removes %s. Their past attendance is kept.\n", strings.Join(removed, ", "))
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Printf("People list unchanged.\n")
			return nil
		}
	}
	return save(ctx, people, roster.PruneTeams(people, r.Teams))
}

type PeopleAddCmd struct {
	Names []string `arg:"" help:"Names to append to the people list."`
}

func (c *PeopleAddCmd) Run(ctx *cli.Context) error {
	r, err := ctx.Service.LoadRoster(ctx.Ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(r.People)+len(c.Names))
	for _, p := range r.People {
		names = append(names, p.Name)
	}
	names = append(names, c.Names...)
	return save(ctx, roster.BuildPeopleList(r.People, names), r.Teams)
}

func save(ctx *cli.Context, people []models.Person, teams []models.Team) error {
	_, err := ctx.Service.SaveRoster(ctx.Ctx, people, teams)
	if err := ctx.Saved(err); err != nil {
		return err
	}
	ctx.Printf("Saved %d people.\n", len(people))
	printPeople(ctx, people)
	return nil
}

func printPeople(ctx *cli.Context, people []models.Person) {
	for _, p := range people {
		ctx.Printf("  %-20s %s\n", p.ID, p.Name)
	}
}

// removedNames lists people in before whose ids are missing from after.
func removedNames(before, after []models.Person) []string {
	kept := make(map[string]bool, len(after))
	for _, p := range after {
		kept[p.ID] = true
	}
	var removed []string
	for _, p := range before {
		if !kept[p.ID] {
			removed = append(removed, p.Name)
		}
	}
	return removed
}
