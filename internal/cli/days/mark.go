package days

import (
	"fmt"
	"maps"
	"strings"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
)

type MarkCmd struct {
	Person string  `arg:"" help:"Person id or name (fuzzy matched)."`
	Status string  `arg:"" optional:"" enum:"here,not,tardy" default:"here" help:"Whole-day status (here, not, tardy)."`
	Date   string  `help:"Day to mark (YYYY-MM-DD, today, yesterday, tomorrow)." default:"today"`
	Note   *string `help:"Replace the person's note for the day."`
	AM     string  `name:"am" help:"Morning session (here, not, none)."`
	PM     string  `name:"pm" help:"Afternoon session (here, not, none)."`
}

func (c *MarkCmd) Run(ctx *cli.Context) error {
	return edit(ctx, c.Date, c.Person, c.apply)
}

func (c *MarkCmd) apply(e models.AttendanceEntry) (models.AttendanceEntry, error) {
	e.Status = models.Status(c.Status)
	if c.Note != nil {
		e = attendance.SetNote(e, *c.Note)
	}
	var err error
	if e.AM, err = parseSession(c.AM, e.AM); err != nil {
		return e, err
	}
	if e.PM, err = parseSession(c.PM, e.PM); err != nil {
		return e, err
	}
	return e, nil
}

type ClearCmd struct {
	Person string `arg:"" help:"Person id or name (fuzzy matched)."`
	Date   string `help:"Day to clear (YYYY-MM-DD, today, yesterday, tomorrow)." default:"today"`
}

func (c *ClearCmd) Run(ctx *cli.Context) error {
	return edit(ctx, c.Date, c.Person, func(e models.AttendanceEntry) (models.AttendanceEntry, error) {
		return attendance.Clear(e), nil
	})
}

// parseSession reads a session flag; an empty flag keeps the current value.
func parseSession(flag string, current models.Session) (models.Session, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "":
		return current, nil
	case "none":
		return models.SessionNone, nil
	case "here":
		return models.SessionHere, nil
	case "not":
		return models.SessionNot, nil
	}
	return current, fmt.Errorf("invalid session %q (expected here, not or none)", flag)
}

// edit loads the day, applies fn to one person's entry and saves the day.
func edit(ctx *cli.Context, dateArg, query string, fn func(models.AttendanceEntry) (models.AttendanceEntry, error)) error {
	date, err := ctx.ResolveDate(dateArg)
	if err != nil {
		return err
	}
	r, err := ctx.Service.LoadRoster(ctx.Ctx)
	if err != nil {
		return err
	}
	person, err := roster.Find(r.People, query)
	if err != nil {
		return err
	}
	day, err := ctx.Service.LoadDay(ctx.Ctx, date)
	if err != nil {
		return err
	}

	entries := make(map[string]models.AttendanceEntry, len(day.Entries)+1)
	maps.Copy(entries, day.Entries)
	entry, err := fn(entries[person.ID])
	if err != nil {
		return err
	}
	if entry.IsZero() {
		delete(entries, person.ID)
	} else {
		entries[person.ID] = entry
	}

	_, err = ctx.Service.SaveDay(ctx.Ctx, date, entries)
	if err := ctx.Saved(err); err != nil {
		return err
	}
	ctx.Printf("%s  %-20s %s\n", date, person.Name, describe(entry))
	return nil
}
