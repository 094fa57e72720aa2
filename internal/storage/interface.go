package storage

import "errors"

// ErrNotFound is returned by Provider.Get for a missing key.
var ErrNotFound = errors.New("record not found")

// ErrNotLoaded is returned when a Provider is used before Init or Load.
var ErrNotLoaded = errors.New("storage not loaded")

// Provider is a persistent mapping from string keys to serialized values.
// Writes overwrite the whole value; there is no partial update.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Records
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	Keys() ([]string, error)

	// Utils
	GetConfigPath() string
}
