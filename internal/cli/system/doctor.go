package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/rollcall/internal/attendance"
	"github.com/julianstephens/rollcall/internal/backup"
	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/keyring"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/roster"
	"github.com/julianstephens/rollcall/internal/storage"
)

// errWarning marks a check that found something worth knowing but not wrong.
var errWarning = errors.New("warning")

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Printf("Running diagnostics...\n\n")

	d := &doctor{ctx: ctx}
	reachable := d.check("Local store reachable", func() error { return checkStoreReachable(ctx) })
	d.checkIf(reachable, "Schema version", func() error { return checkSchemaVersion(ctx) })
	d.check("Backups present", func() error { return checkBackupsPresent(ctx) })
	d.checkIf(reachable, "Settings", func() error { return checkSettings(ctx) })
	d.checkIf(reachable, "Data validation", func() error { return checkData(ctx) })
	d.check("Clock/timezone", checkClock)
	d.check("Remote store", func() error { return checkRemote(ctx) })
	d.check("OS keyring", checkKeyring)

	ctx.Printf("\n")
	if d.failed {
		ctx.Printf("Diagnostics completed with errors.\n")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Printf("All diagnostics passed!\n")
	return nil
}

type doctor struct {
	ctx    *cli.Context
	failed bool
}

// check runs fn and prints its outcome; it reports whether fn passed.
func (d *doctor) check(name string, fn func() error) bool {
	err := fn()
	switch {
	case err == nil:
		d.ctx.Printf("✓ %s: OK\n", name)
		return true
	case errors.Is(err, errWarning):
		d.ctx.Printf("⚠ %s: WARNING\n", name)
		d.ctx.Printf("   %v\n", err)
		return true
	}
	d.ctx.Printf("❌ %s: FAIL\n", name)
	d.ctx.Printf("   Error: %v\n", err)
	d.failed = true
	return false
}

func (d *doctor) checkIf(ok bool, name string, fn func() error) {
	if !ok {
		d.ctx.Printf("⊘ %s: SKIPPED (local store not reachable)\n", name)
		return
	}
	d.check(name, fn)
}

func checkStoreReachable(ctx *cli.Context) error {
	if ctx.Store == nil {
		kv, err := ctx.Config.OpenLocal(false)
		if err != nil {
			return fmt.Errorf("failed to load local store: %w", err)
		}
		ctx.Store = kv
	}
	if sqliteStore, ok := ctx.Store.(*storage.SQLiteStore); ok {
		db := sqliteStore.DB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	sqliteStore, ok := ctx.Store.(*storage.SQLiteStore)
	if !ok {
		// JSON store doesn't have schema version
		return nil
	}
	current, latest, err := sqliteStore.SchemaVersions()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*storage.SQLiteStore); !ok {
		return fmt.Errorf("%w: snapshot backups need a SQLite store, use 'rollcall export' for a JSON backup", errWarning)
	}
	mgr := backup.NewManager(ctx.Store.Path())
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("%w: no backups found - consider creating one with 'rollcall backup create'", errWarning)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := storage.GetSettings(ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings = ctx.Config.ApplySettings(settings)
	return validateSettings(settings)
}

func validateSettings(s models.Settings) error {
	if !datekey.ValidateTimezone(s.Timezone) {
		return fmt.Errorf("unknown timezone %q", s.Timezone)
	}
	if s.SlowThreshold >= s.BusyThreshold {
		return fmt.Errorf("%s (%v) must be below %s (%v)",
			constants.SettingSlowThreshold, s.SlowThreshold, constants.SettingBusyThreshold, s.BusyThreshold)
	}
	if s.ClientID == "" {
		return fmt.Errorf("%w: no client id yet, one is assigned on the next run", errWarning)
	}
	return nil
}

func checkData(ctx *cli.Context) error {
	snap, err := storage.NewCache(ctx.Store).Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := roster.Validate(models.Roster{People: snap.People, Teams: snap.Teams}); err != nil {
		return err
	}
	for date, data := range snap.Attendance {
		if !datekey.Valid(date) {
			return fmt.Errorf("attendance stored under invalid date %q", date)
		}
		if attendance.DecodeDayRecordJSON(data) == nil {
			return fmt.Errorf("%w: day %s is unreadable and will be treated as empty", errWarning, date)
		}
	}
	return nil
}

func checkClock() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkRemote(ctx *cli.Context) error {
	if !ctx.Config.Online() {
		return fmt.Errorf("%w: no remote configured, working offline", errWarning)
	}
	remote := ctx.Remote
	if remote == nil {
		r, err := ctx.Config.OpenRemote(ctx.Ctx)
		if err != nil {
			return err
		}
		ctx.Remote = r
		remote = r
	}
	if _, err := remote.Get(ctx.Ctx, constants.CollectionConfig, constants.ConfigPeopleID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("failed to read from %s: %w", ctx.Config.Remote, err)
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("%w: OS keyring is not available, use environment variables for connection strings", errWarning)
	}
	return nil
}
