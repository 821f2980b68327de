package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	// Perform automatic backup on TUI startup (after successful load)
	ctx.PerformAutomaticBackup()

	p := tea.NewProgram(tui.NewModel(ctx.Ctx, ctx.Service), tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		if cerr := m.Close(); cerr != nil {
			logger.Warn("Failed to close day subscription", "error", cerr)
		}
	}
	if err != nil {
		return fmt.Errorf("tui exited with an error: %w", err)
	}
	return nil
}
