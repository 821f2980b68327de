package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/storage"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing local store before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	path := ctx.Config.DB
	if ctx.Store != nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing store: %w", err)
		}
		ctx.Store = nil
	}
	if c.Force {
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to delete existing store: %w", err)
			}
			ctx.Printf("Deleted existing store at: %s\n", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing store: %w", err)
		}
	}

	kv, err := ctx.Config.OpenLocal(true)
	if err != nil {
		return err
	}
	ctx.Store = kv

	settings, err := storage.EnsureSettings(kv)
	if err != nil {
		return err
	}
	ctx.Printf("Initialized rollcall storage at: %s\n", kv.Path())
	ctx.Printf("Client id: %s\n", settings.ClientID)
	return nil
}
