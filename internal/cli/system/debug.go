package system

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/storage"
	"github.com/julianstephens/rollcall/internal/tracker"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show local store path."`
	DumpDay      *DebugDumpDayCmd      `cmd:"" help:"Dump a stored day as JSON, exactly as saved."`
	DumpRoster   *DebugDumpRosterCmd   `cmd:"" help:"Dump the people and teams as JSON."`
	DumpSettings *DebugDumpSettingsCmd `cmd:"" help:"Dump settings as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	output := map[string]string{
		"path":   ctx.Store.Path(),
		"remote": ctx.Config.Remote,
	}
	return printJSON(ctx, output)
}

type DebugDumpDayCmd struct {
	Date   string `arg:"" help:"Day to dump (YYYY-MM-DD or 'today')."`
	Remote bool   `help:"Dump the remote document instead of the local copy."`
}

func (cmd *DebugDumpDayCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ResolveDate(cmd.Date)
	if err != nil {
		return err
	}

	if cmd.Remote {
		if ctx.Remote == nil {
			return tracker.ErrOffline
		}
		doc, err := ctx.Remote.Get(ctx.Ctx, constants.CollectionAttendance, date)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return fmt.Errorf("no remote record for date: %s", date)
			}
			return fmt.Errorf("failed to get remote day: %w", err)
		}
		return printJSON(ctx, doc)
	}

	raw, ok, err := ctx.Cache.Day(date)
	if err != nil {
		return fmt.Errorf("failed to get day: %w", err)
	}
	if !ok {
		return fmt.Errorf("no local record for date: %s", date)
	}
	ctx.Printf("%s\n", raw)
	return nil
}

type DebugDumpRosterCmd struct{}

func (cmd *DebugDumpRosterCmd) Run(ctx *cli.Context) error {
	r, err := ctx.Service.LoadRoster(ctx.Ctx)
	if err != nil {
		return err
	}
	return printJSON(ctx, r)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := storage.GetSettings(ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(ctx, settings)
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Printf("%s\n", jsonBytes)
	return nil
}
