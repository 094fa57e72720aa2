package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/markease/internal/constants"
)

var (
	// ErrNotFound is returned when no secret is stored for the account
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Get retrieves the secret stored for the given account.
func Get(account string) (string, error) {
	secret, err := keyring.Get(constants.AppName, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

// Set stores a secret for the given account.
func Set(account, secret string) error {
	if secret == "" {
		return errors.New("secret cannot be empty")
	}
	if err := keyring.Set(constants.AppName, account, secret); err != nil {
		return fmt.Errorf("failed to store secret in keyring: %w", err)
	}
	return nil
}

// Delete removes the secret for the given account.
func Delete(account string) error {
	if err := keyring.Delete(constants.AppName, account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete secret from keyring: %w", err)
	}
	return nil
}

// GetAIKey returns the AI service API key.
func GetAIKey() (string, error) { return Get(constants.KeyringAIUser) }

// SetAIKey stores the AI service API key.
func SetAIKey(key string) error { return Set(constants.KeyringAIUser, key) }

// GetConnectionString returns the PostgreSQL connection string.
func GetConnectionString() (string, error) { return Get(constants.KeyringDatabaseUser) }

// SetConnectionString stores the PostgreSQL connection string.
func SetConnectionString(connStr string) error { return Set(constants.KeyringDatabaseUser, connStr) }

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
