package main

import (
	"fmt"
	"os"
	"strings"
	_ "time/tzdata"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/cli/backups"
	"github.com/julianstephens/rollcall/internal/cli/days"
	"github.com/julianstephens/rollcall/internal/cli/people"
	"github.com/julianstephens/rollcall/internal/cli/settings"
	"github.com/julianstephens/rollcall/internal/cli/system"
	"github.com/julianstephens/rollcall/internal/config"
	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/errors"
	"github.com/julianstephens/rollcall/internal/logger"
)

var CLI struct {
	config.Config `embed:""`

	Version kong.VersionFlag `help:"Print the version and exit."`

	Init     system.InitCmd     `cmd:"" help:"Initialize rollcall storage."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd      `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Serve    system.ServeCmd    `cmd:"" help:"Serve the attendance HTTP API."`
	Mark     days.MarkCmd       `cmd:"" help:"Mark a person's attendance for a day."`
	Clear    days.ClearCmd      `cmd:"" help:"Clear a person's attendance for a day."`
	Day      days.DayCmd        `cmd:"" help:"Show attendance for a day."`
	Watch    days.WatchCmd      `cmd:"" help:"Follow a day's attendance as it changes remotely."`
	Calendar days.CalendarCmd   `cmd:"" help:"Show a month of attendance."`
	Trends   days.TrendsCmd     `cmd:"" help:"Show per-person and per-team attendance trends."`
	Inspect  system.DebugCmd    `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	People   struct {
		List people.PeopleListCmd `cmd:"" help:"List people." default:"1"`
		Set  people.PeopleSetCmd  `cmd:"" help:"Replace the people list."`
		Add  people.PeopleAddCmd  `cmd:"" help:"Add people."`
	} `cmd:"" help:"Manage the people list."`
	Team struct {
		List people.TeamListCmd `cmd:"" help:"List teams." default:"1"`
		Set  people.TeamSetCmd  `cmd:"" help:"Create, change or remove a team."`
	} `cmd:"" help:"Manage teams."`
	Export backups.ExportCmd `cmd:"" help:"Export local data as a JSON backup or an xlsx spreadsheet."`
	Import backups.ImportCmd `cmd:"" help:"Replace local data with a JSON backup."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage local store backups."`
	Sync struct {
		Push system.SyncPushCmd `cmd:"" help:"Copy local data to the remote store."`
		Pull system.SyncPullCmd `cmd:"" help:"Copy remote data into the local store."`
	} `cmd:"" help:"Synchronize with the remote store."`
	Settings struct {
		Show settings.SettingsShowCmd `cmd:"" help:"Show current settings." default:"1"`
		Set  settings.SettingsSetCmd  `cmd:"" help:"Change a setting."`
	} `cmd:"" help:"Manage application settings."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a remote connection string in the OS keyring."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a remote connection string from the OS keyring."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability and stored connections."`
	} `cmd:"" help:"Manage remote credentials in the OS keyring."`
}

// Commands that open the local store themselves, or never need it.
var standalone = map[string]bool{
	"init":    true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.Format(err))
		os.Exit(1)
	}

	vars := kong.Vars(config.Vars())
	vars["version"] = constants.Version
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily attendance tracker with offline storage and optional live sync"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		vars,
	)

	command := strings.Fields(kctx.Command())[0]
	if err := logger.Init(logger.Config{
		Debug:     CLI.Config.Debug,
		Level:     CLI.Config.LogLevel,
		Format:    CLI.Config.LogFormat,
		ConfigDir: CLI.Config.Dir(),
		Quiet:     command == "tui",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("Starting", "command", kctx.Command(), "db", CLI.Config.DB, "remote", CLI.Config.Remote)

	appCtx := cli.NewContext(CLI.Config)
	defer appCtx.Close()

	if !standalone[command] {
		if err := appCtx.Open(); err != nil {
			appCtx.Close()
			errors.Fatal(err)
		}
	}

	if err := kctx.Run(appCtx); err != nil {
		appCtx.Close()
		errors.Fatal(err)
	}
}
