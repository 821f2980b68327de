package days

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/datekey"
)

type CalendarCmd struct {
	Month string `arg:"" optional:"" help:"Month to show (YYYY-MM). Defaults to the current month."`
	JSON  bool   `name:"json" help:"Print the month as JSON."`
}

func (c *CalendarCmd) Run(ctx *cli.Context) error {
	year, month, err := c.resolve(ctx.Service.Today())
	if err != nil {
		return err
	}
	m, err := ctx.Service.Month(ctx.Ctx, year, month)
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal month: %w", err)
		}
		ctx.Printf("%s\n", data)
		return nil
	}

	ctx.Printf("%s\n\n", m.Title())
	for _, d := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		ctx.Printf("%-10s", d)
	}
	ctx.Printf("\n")
	for _, week := range m.Weeks() {
		for _, cell := range week {
			ctx.Printf("%-10s", calendarCell(cell))
		}
		ctx.Printf("\n")
	}
	ctx.Printf("\n+ busy   - slow\n")
	return nil
}

func (c *CalendarCmd) resolve(today string) (int, time.Month, error) {
	if c.Month == "" {
		t, err := datekey.Parse(today)
		if err != nil {
			return 0, 0, err
		}
		return t.Year(), t.Month(), nil
	}
	t, err := time.Parse("2006-01", c.Month)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, use YYYY-MM: %w", c.Month, err)
	}
	return t.Year(), t.Month(), nil
}

// calendarCell renders e.g. "14 3/4+".
func calendarCell(cell attendance.Cell) string {
	if cell.Blank {
		return ""
	}
	if !cell.HasRecord {
		return fmt.Sprintf("%2d", cell.Day)
	}
	mark := ""
	switch cell.Heat {
	case attendance.HeatBusy:
		mark = "+"
	case attendance.HeatSlow:
		mark = "-"
	}
	return fmt.Sprintf("%2d %d/%d%s", cell.Day, cell.Count.HereCount, cell.Count.Total, mark)
}

type TrendsCmd struct {
	Days int    `help:"Window length in days. Defaults to the trend_days setting."`
	Team string `help:"Only include members of this team."`
	JSON bool   `name:"json" help:"Print the report as JSON."`
}

func (c *TrendsCmd) Run(ctx *cli.Context) error {
	if c.Days < 0 {
		return fmt.Errorf("days must be positive, got %d", c.Days)
	}
	report, err := ctx.Service.Trends(ctx.Ctx, c.Days, c.Team)
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal trends: %w", err)
		}
		ctx.Printf("%s\n", data)
		return nil
	}

	ctx.Printf("Trends %s to %s\n\n", report.Start, report.End)
	if len(report.People) == 0 {
		ctx.Printf("  No attendance recorded\n")
		return nil
	}
	header := fmt.Sprintf("  %-20s %5s %5s %6s %6s %5s %7s", "Name", "Here", "Not", "Total", "Tardy", "Late", "Percent")
	ctx.Printf("%s\n  %s\n", header, strings.Repeat("-", len(header)-2))
	for _, p := range report.People {
		s := p.Summary
		ctx.Printf("  %-20s %5d %5d %6d %6d %5d %7s\n", p.Name, s.Here, s.Not, s.Total, s.Tardy, p.Late, p.Percent())
	}

	if len(report.Teams) > 0 {
		ctx.Printf("\n  %-20s %5s %5s %6s %7s\n", "Team", "Here", "Not", "Total", "Percent")
		for _, t := range report.Teams {
			s := t.Summary
			ctx.Printf("  %-20s %5d %5d %6d %7s\n", t.Name, s.Here, s.Not, s.Total, t.Percent())
		}
	}
	return nil
}
