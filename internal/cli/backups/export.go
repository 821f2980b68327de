package backups

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/rollcall/internal/backup"
	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/datekey"
)

type ExportCmd struct {
	Output string `arg:"" optional:"" type:"path" help:"File to write. Defaults to a dated name in the current directory."`
	Format string `help:"Export format (json, xlsx). Inferred from an .xlsx output name." enum:"json,xlsx" default:"json"`
	From   string `help:"First day of a spreadsheet export (YYYY-MM-DD). Defaults to the trend window."`
	To     string `help:"Last day of a spreadsheet export (YYYY-MM-DD). Defaults to today."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	format := c.Format
	if strings.HasSuffix(strings.ToLower(c.Output), constants.SpreadsheetSuffix) {
		format = "xlsx"
	}

	snap, err := ctx.Service.Snapshot()
	if err != nil {
		return err
	}
	today := ctx.Service.Today()

	if format != "xlsx" {
		if c.From != "" || c.To != "" {
			return fmt.Errorf("--from and --to only apply to xlsx exports")
		}
		path := c.Output
		if path == "" {
			path = backup.DefaultExportName(today)
		}
		if err := backup.Export(snap, time.Now()).WriteExport(path); err != nil {
			return err
		}
		ctx.Printf("✓ Exported %d people and %d days to %s\n", len(snap.People), len(snap.Attendance), filepath.Base(path))
		return nil
	}

	start, end, err := c.window(ctx, today)
	if err != nil {
		return err
	}
	path := c.Output
	if path == "" {
		path = "attendance-" + start + "_" + end + constants.SpreadsheetSuffix
	}
	if err := backup.WriteSpreadsheet(path, snap, start, end); err != nil {
		return err
	}
	ctx.Printf("✓ Exported %s to %s as a spreadsheet: %s\n", start, end, filepath.Base(path))
	return nil
}

func (c *ExportCmd) window(ctx *cli.Context, today string) (string, string, error) {
	end := c.To
	if end == "" {
		end = today
	}
	start := c.From
	if start == "" {
		start = ctx.Service.Calendar().AddDays(end, -ctx.Settings.TrendDays)
	}
	if !datekey.Valid(start) || !datekey.Valid(end) {
		return "", "", fmt.Errorf("%w: %q..%q", datekey.ErrInvalidKey, start, end)
	}
	if start > end {
		return "", "", fmt.Errorf("--from %s is after --to %s", start, end)
	}
	return start, end, nil
}

type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Backup written by 'rollcall export'."`
	Yes  bool   `short:"y" help:"Do not ask before replacing local data."`
	Push bool   `help:"Also push the imported data to the remote store."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	snap, err := backup.ReadImport(c.File)
	if err != nil {
		return err
	}

	if !c.Yes {
		ctx.Printf("This replaces the local roster and attendance with %d people and %d days from %s.\n",
			len(snap.People), len(snap.Attendance), filepath.Base(c.File))
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Printf("Import cancelled.\n")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Service.Restore(snap); err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}
	ctx.Printf("✓ Imported %d people and %d days\n", len(snap.People), len(snap.Attendance))

	if c.Push {
		n, err := ctx.Service.Push(ctx.Ctx)
		if err != nil {
			return err
		}
		ctx.Printf("✓ Pushed %d days to %s\n", n, ctx.Config.Remote)
	}
	return nil
}
