package settings

import (
	"fmt"
	"sort"

	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/storage"
)

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *cli.Context) error {
	settings, err := storage.GetSettings(ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	values := settings.Map()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx.Printf("Current Settings:\n")
	for _, k := range keys {
		ctx.Printf("  %-16s %s\n", k+":", values[k])
	}
	ctx.Printf("  %-16s %s\n", "client_id:", settings.ClientID)
	if ctx.Config.Timezone != "" && ctx.Config.Timezone != settings.Timezone {
		ctx.Printf("\nTimezone overridden to %s by --timezone or ROLLCALL_TIMEZONE.\n", ctx.Config.Timezone)
	}
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" enum:"timezone,busy_threshold,slow_threshold,trend_days" help:"Setting to change (timezone, busy_threshold, slow_threshold, trend_days)."`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	settings, err := storage.GetSettings(ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settings.Set(c.Key, c.Value); err != nil {
		return err
	}

	switch c.Key {
	case constants.SettingTimezone:
		if !datekey.ValidateTimezone(settings.Timezone) {
			return fmt.Errorf("unknown timezone %q", settings.Timezone)
		}
	case constants.SettingBusyThreshold, constants.SettingSlowThreshold:
		if settings.SlowThreshold >= settings.BusyThreshold {
			return fmt.Errorf("%s must stay below %s", constants.SettingSlowThreshold, constants.SettingBusyThreshold)
		}
	}

	if err := storage.SaveSettings(ctx.Store, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Printf("Settings updated successfully.\n")
	return nil
}
