package storage

import (
	"errors"
	"strings"
)

var (
	// ErrNotInitialized is returned by Load when the store file does not exist
	ErrNotInitialized = errors.New("storage not initialized")
	// ErrNotLoaded is returned when a store is used before Init or Load
	ErrNotLoaded = errors.New("storage not loaded")
)

// KV is the local key/value store backing the offline cache and settings.
// Values are opaque JSON blobs.
type KV interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Get returns the value stored under key; ok is false when absent.
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error

	// Path returns the file backing the store.
	Path() string
}

// New picks the store implementation from the file extension: ".json"
// selects the JSON file store, anything else SQLite.
func New(path string) KV {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return NewJSONStore(path)
	}
	return NewSQLiteStore(path)
}
