package days

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"slices"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/tracker"
)

type DayCmd struct {
	Date string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, today, yesterday, tomorrow)." default:"today"`
	JSON bool   `name:"json" help:"Print the day as JSON."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	r, err := ctx.Service.LoadRoster(ctx.Ctx)
	if err != nil {
		return err
	}
	day, err := ctx.Service.LoadDay(ctx.Ctx, date)
	if err != nil {
		return err
	}

	if c.JSON {
		out := struct {
			tracker.Day
			Exists bool                `json:"exists"`
			Count  attendance.DayCount `json:"count"`
		}{day, day.Exists(), attendance.Count(day.Entries)}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal day: %w", err)
		}
		ctx.Printf("%s\n", data)
		return nil
	}

	printDay(ctx, r.People, day)
	return nil
}

type row struct {
	ID   string
	Name string
}

// rows lists roster people first, then ids only found in the record.
func rows(people []models.Person, day tracker.Day) []row {
	out := make([]row, 0, len(people))
	seen := make(map[string]bool, len(people))
	for _, p := range people {
		out = append(out, row{ID: p.ID, Name: p.Name})
		seen[p.ID] = true
	}

	var names map[string]string
	if day.Record != nil {
		names = day.Record.Names()
	}
	var extra []string
	for id := range day.Entries {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	for _, id := range extra {
		name := names[id]
		if name == "" {
			name = id
		}
		out = append(out, row{ID: id, Name: name})
	}
	return out
}

func printDay(ctx *cli.Context, people []models.Person, day tracker.Day) {
	ctx.Printf("Attendance for %s (%s):\n\n", day.Date, day.Source)
	if !day.Exists() {
		ctx.Printf("  No attendance recorded\n")
	}
	list := rows(people, day)
	if len(list) == 0 {
		ctx.Printf("  No people yet. Add some with 'rollcall people add'.\n")
		return
	}
	for _, r := range list {
		ctx.Printf("  %-20s %s\n", r.Name, describe(day.Entries[r.ID]))
	}
	count := attendance.Count(day.Entries)
	ctx.Printf("\n  %d/%d here\n", count.HereCount, count.Total)
}

type WatchCmd struct {
	Date string `arg:"" optional:"" help:"Day to follow (YYYY-MM-DD, today, yesterday, tomorrow)." default:"today"`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	if !ctx.Service.Online() {
		return fmt.Errorf("%w: watch follows the remote store", tracker.ErrOffline)
	}
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	r, err := ctx.Service.LoadRoster(ctx.Ctx)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx.Ctx, os.Interrupt)
	defer stop()

	updates := make(chan tracker.Day, 16)
	sub, err := ctx.Service.WatchDay(sigCtx, date, func(d tracker.Day) {
		select {
		case updates <- d:
		case <-sigCtx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", date, err)
	}
	defer sub.Close()

	for {
		select {
		case <-sigCtx.Done():
			return nil
		case d := <-updates:
			printDay(ctx, r.People, d)
			ctx.Printf("\n")
		}
	}
}
