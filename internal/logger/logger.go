// Package logger holds rollcall's process-wide logger. Output always goes to
// a rotating file under the data directory; debug mode also tees to stderr
// unless the terminal belongs to the TUI.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/rollcall/internal/constants"
)

// Output formats accepted by Config.Format.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Logger is the global logger. Nil until Init; the helpers below are no-ops
// while it is nil so packages can log from tests without setup.
var Logger *log.Logger

// Config selects where and how much rollcall logs.
type Config struct {
	Debug bool
	// Level is one of debug, info, warn, error. Empty means info, or debug
	// when Debug is set.
	Level string
	// Format is text, json or logfmt. Empty means text.
	Format    string
	ConfigDir string
	// Quiet keeps debug output off stderr.
	Quiet bool
}

// Path is the active log file for a data directory.
func Path(configDir string) string {
	return filepath.Join(configDir, "logs", constants.AppName+".log")
}

func (c Config) level() (log.Level, error) {
	if c.Level == "" {
		if c.Debug {
			return log.DebugLevel, nil
		}
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return lvl, nil
}

func (c Config) formatter() (log.Formatter, error) {
	switch strings.ToLower(c.Format) {
	case "", FormatText:
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	}
	return 0, fmt.Errorf("invalid log format %q", c.Format)
}

// Init replaces the global logger. An invalid level or format leaves the
// previous logger in place.
func Init(cfg Config) error {
	level, err := cfg.level()
	if err != nil {
		return err
	}
	formatter, err := cfg.formatter()
	if err != nil {
		return err
	}

	path := Path(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	var w io.Writer = file
	if cfg.Debug && !cfg.Quiet {
		w = io.MultiWriter(os.Stderr, file)
	}

	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    level == log.DebugLevel,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
		Formatter:       formatter,
	})
	return nil
}

// With returns a child logger carrying keyvals on every line, or nil when
// logging is not initialised.
func With(keyvals ...interface{}) *log.Logger {
	if Logger == nil {
		return nil
	}
	return Logger.With(keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs msg and exits with status 1.
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
