package system

import (
	"github.com/julianstephens/rollcall/internal/cli"
)

type SyncPushCmd struct{}

func (c *SyncPushCmd) Run(ctx *cli.Context) error {
	n, err := ctx.Service.Push(ctx.Ctx)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Pushed the roster and %d days to %s\n", n, ctx.Config.Remote)
	return nil
}

type SyncPullCmd struct {
	From string `help:"First day to pull (YYYY-MM-DD). Defaults to the trend window."`
	To   string `help:"Last day to pull (YYYY-MM-DD). Defaults to today."`
}

func (c *SyncPullCmd) Run(ctx *cli.Context) error {
	end := c.To
	if end == "" {
		end = ctx.Service.Today()
	}
	start := c.From
	if start == "" {
		start = ctx.Service.Calendar().AddDays(end, -ctx.Settings.TrendDays)
	}
	n, err := ctx.Service.Pull(ctx.Ctx, start, end)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Pulled the roster and %d days (%s to %s) from %s\n", n, start, end, ctx.Config.Remote)
	return nil
}
