package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/rollcall/internal/backup"
	"github.com/julianstephens/rollcall/internal/datekey"
	"github.com/julianstephens/rollcall/internal/docstore/postgres"
	"github.com/julianstephens/rollcall/internal/keyring"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/storage"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint returns a one-line suggestion for errors the user can fix themselves,
// or "" when there is nothing useful to add.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, storage.ErrNotInitialized):
		return "run 'rollcall init' to create the local store"
	case stderrors.Is(err, datekey.ErrInvalidKey):
		return "dates must be real calendar days in YYYY-MM-DD form"
	case stderrors.Is(err, postgres.ErrEmbeddedCredentials):
		return "store the password with 'rollcall keyring set postgres', ROLLCALL_POSTGRES_URL or .pgpass instead"
	case stderrors.Is(err, backup.ErrInvalidBackup):
		return "import expects a file written by 'rollcall export'"
	case stderrors.Is(err, keyring.ErrKeyringUnavailable):
		return "set the remote connection through environment variables instead"
	}
	return ""
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		if hint := Hint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "       hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
