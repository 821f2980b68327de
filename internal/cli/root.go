package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/rollcall/internal/backup"
	"github.com/julianstephens/rollcall/internal/config"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/docstore/postgres"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/storage"
	"github.com/julianstephens/rollcall/internal/tracker"
)

type Context struct {
	Config   config.Config
	Store    storage.KV
	Cache    *storage.Cache
	Settings models.Settings
	Remote   docstore.Store
	Service  *tracker.Service

	Ctx context.Context
	Out io.Writer
	In  io.Reader
}

// NewContext returns a context writing to stdout and reading stdin.
func NewContext(cfg config.Config) *Context {
	return &Context{
		Config: cfg,
		Ctx:    context.Background(),
		Out:    os.Stdout,
		In:     os.Stdin,
	}
}

// Open loads the local store and settings, connects the configured remote
// and builds the tracker service. A remote that is configured but
// unreachable leaves the app offline with a warning; a remote that is
// misconfigured is an error.
func (c *Context) Open() error {
	kv, err := c.Config.OpenLocal(false)
	if err != nil {
		return err
	}
	return c.attach(kv)
}

// OpenWith builds the context around an already open store and remote.
func (c *Context) OpenWith(kv storage.KV, remote docstore.Store) error {
	c.Remote = remote
	return c.attach(kv)
}

func (c *Context) attach(kv storage.KV) error {
	c.Store = kv
	c.Cache = storage.NewCache(kv)

	settings, err := storage.EnsureSettings(kv)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	c.Settings = c.Config.ApplySettings(settings)

	if c.Remote == nil && c.Config.Online() {
		remote, err := c.Config.OpenRemote(c.Ctx)
		switch {
		case err == nil:
			c.Remote = remote
		case errors.Is(err, config.ErrMissingConnection),
			errors.Is(err, postgres.ErrEmbeddedCredentials),
			errors.Is(err, postgres.ErrInvalidConnectionString):
			return err
		default:
			logger.Warn("Remote store unavailable, working offline", "remote", c.Config.Remote, "error", err)
			fmt.Fprintf(os.Stderr, "Warning: %s unavailable, working offline: %v\n", c.Config.Remote, err)
		}
	}

	svc, err := tracker.New(c.Remote, c.Cache, c.Settings)
	if err != nil {
		return err
	}
	c.Service = svc
	return nil
}

// Close releases the remote connection and the local store.
func (c *Context) Close() error {
	var errs []error
	if c.Remote != nil {
		errs = append(errs, c.Remote.Close(c.Ctx))
		c.Remote = nil
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}

// PerformAutomaticBackup snapshots a SQLite store and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*storage.SQLiteStore); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.Path())
	if _, err := mgr.Create(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveDate turns "today", "yesterday", "tomorrow" or a YYYY-MM-DD key into
// a validated key.
func (c *Context) ResolveDate(s string) (string, error) {
	cal := c.Service.Calendar()
	today := cal.Today()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return cal.AddDays(today, -1), nil
	case "tomorrow":
		return cal.AddDays(today, 1), nil
	}
	if !datekey.Valid(s) {
		return "", fmt.Errorf("%w: %q", datekey.ErrInvalidKey, s)
	}
	return s, nil
}

// Confirm asks a yes/no question on Out and reads the answer from In.
func (c *Context) Confirm(question string) (bool, error) {
	fmt.Fprintf(c.Out, "%s [y/N]: ", question)
	response, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Saved turns a save that only reached the local copy into a warning.
func (c *Context) Saved(err error) error {
	if errors.Is(err, tracker.ErrSavedLocally) {
		logger.Warn("Remote save failed", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return nil
	}
	return err
}
