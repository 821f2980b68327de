// Package config resolves where rollcall keeps its data and which remote
// document store it talks to. Values come, lowest to highest, from struct tag
// defaults, a .env file, ROLLCALL_* environment variables and command-line
// flags; remote credentials fall back to the OS keyring.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/docstore/mongo"
	"github.com/julianstephens/rollcall/internal/docstore/postgres"
	"github.com/julianstephens/rollcall/internal/keyring"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/models"
	"github.com/julianstephens/rollcall/internal/storage"
)

// ErrMissingConnection is returned when a remote is selected but no
// connection string is configured anywhere.
var ErrMissingConnection = errors.New("remote connection string not configured")

// Config is embedded into the kong CLI; kong applies the env and default tags.
type Config struct {
	DB            string `help:"Local store path (.json for a JSON file, anything else is SQLite)." type:"path" default:"${db_path}" env:"ROLLCALL_DB"`
	Remote        string `help:"Remote document store (none, mongo, postgres)." enum:"none,mongo,postgres" default:"none" env:"ROLLCALL_REMOTE"`
	MongoURI      string `help:"MongoDB connection URI." name:"mongo-uri" env:"ROLLCALL_MONGO_URI"`
	MongoDatabase string `help:"MongoDB database name." name:"mongo-database" default:"${mongo_database}" env:"ROLLCALL_MONGO_DATABASE"`
	PostgresURL   string `help:"PostgreSQL connection string. Passwords belong in .pgpass or the keyring." name:"postgres-url" env:"ROLLCALL_POSTGRES_URL"`
	Timezone      string `help:"IANA timezone used for today's date. Overrides the stored setting." env:"ROLLCALL_TIMEZONE"`
	Debug         bool   `help:"Log debug output to stderr." env:"ROLLCALL_DEBUG"`
	LogLevel      string `help:"Log file level (debug, info, warn, error). Defaults to info, or debug with --debug." name:"log-level" env:"ROLLCALL_LOG_LEVEL"`
	LogFormat     string `help:"Log file format (text, json, logfmt)." name:"log-format" enum:"text,json,logfmt" default:"text" env:"ROLLCALL_LOG_FORMAT"`
}

// Vars returns the kong variables referenced by Config's defaults.
func Vars() map[string]string {
	return map[string]string{
		"db_path":        constants.DefaultConfigPath,
		"mongo_database": constants.DefaultMongoDatabase,
		"listen_addr":    constants.DefaultListenAddr,
	}
}

// LoadDotEnv copies values from .env files into the environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		logger.Debug("Loaded environment file", "path", p)
	}
	return nil
}

// Dir is the directory holding the local store, backups and logs.
func (c Config) Dir() string {
	return filepath.Dir(c.DB)
}

// Online reports whether a remote store is selected.
func (c Config) Online() bool {
	return c.Remote != "" && c.Remote != constants.RemoteNone
}

// ApplySettings lets the configured timezone override the stored one.
func (c Config) ApplySettings(s models.Settings) models.Settings {
	if c.Timezone != "" {
		s.Timezone = c.Timezone
	}
	return s
}

// Connection returns the connection string for the selected remote. Flags and
// the environment win; otherwise the keyring is consulted. fromKeyring tells
// the caller the string came from the keyring, which may hold a password.
func (c Config) Connection() (connStr string, fromKeyring bool, err error) {
	switch c.Remote {
	case constants.RemoteMongo:
		connStr = c.MongoURI
	case constants.RemotePostgres:
		connStr = c.PostgresURL
	default:
		return "", false, fmt.Errorf("%w: %q", keyring.ErrUnknownBackend, c.Remote)
	}
	if connStr != "" {
		return connStr, false, nil
	}

	connStr, err = keyring.GetConnectionString(c.Remote)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, fmt.Errorf("%w for %s", ErrMissingConnection, c.Remote)
		}
		return "", false, err
	}
	logger.Debug("Using connection string from keyring", "remote", c.Remote)
	return connStr, true, nil
}

// OpenRemote connects to the selected remote store, or returns nil when the
// app runs offline.
func (c Config) OpenRemote(ctx context.Context) (docstore.Store, error) {
	if !c.Online() {
		return nil, nil
	}
	connStr, fromKeyring, err := c.Connection()
	if err != nil {
		return nil, err
	}

	switch c.Remote {
	case constants.RemoteMongo:
		store, err := mongo.Connect(ctx, connStr, c.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := postgres.Open(ctx, connStr, fromKeyring)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// OpenLocal returns the local store, loaded. With create set a missing store
// is initialized instead of reported as storage.ErrNotInitialized.
func (c Config) OpenLocal(create bool) (storage.KV, error) {
	kv := storage.New(c.DB)
	if create {
		if err := kv.Init(); err != nil {
			return nil, err
		}
		return kv, nil
	}
	if err := kv.Load(); err != nil {
		return nil, err
	}
	return kv, nil
}
