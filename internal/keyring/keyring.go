package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/rollcall/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are stored for a backend
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
	// ErrUnknownBackend is returned for backends that take no connection string
	ErrUnknownBackend = errors.New("unknown remote backend")
)

// user returns the keyring account name for a remote backend. Each backend
// keeps its own entry so switching between them does not lose credentials.
func user(backend string) (string, error) {
	switch backend {
	case constants.RemoteMongo, constants.RemotePostgres:
		return constants.DefaultKeyringUser + ":" + backend, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// GetConnectionString retrieves the connection string for backend.
// Returns ErrNotFound if no credentials are stored.
func GetConnectionString(backend string) (string, error) {
	u, err := user(backend)
	if err != nil {
		return "", err
	}
	connStr, err := keyring.Get(constants.AppName, u)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return connStr, nil
}

// SetConnectionString stores the connection string for backend.
func SetConnectionString(backend, connStr string) error {
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	u, err := user(backend)
	if err != nil {
		return err
	}
	if err := keyring.Set(constants.AppName, u, connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// DeleteConnectionString removes the connection string for backend.
func DeleteConnectionString(backend string) error {
	u, err := user(backend)
	if err != nil {
		return err
	}
	if err := keyring.Delete(constants.AppName, u); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
