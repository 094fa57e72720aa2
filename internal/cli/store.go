package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/markease/internal/config"
	"github.com/julianstephens/markease/internal/constants"
	merrors "github.com/julianstephens/markease/internal/errors"
	"github.com/julianstephens/markease/internal/keyring"
	"github.com/julianstephens/markease/internal/storage"
	"github.com/julianstephens/markease/internal/storage/postgres"
	"github.com/julianstephens/markease/internal/storage/sqlite"
)

// KeyringPath selects the PostgreSQL connection stored in the OS keyring.
const KeyringPath = "keyring"

// OpenProvider picks a storage backend for path:
//   - "keyring": PostgreSQL via MARKEASE_DB_CONNECTION or the OS keyring
//   - postgres:// URLs: PostgreSQL, refusing embedded passwords
//   - *.json: a single JSON document
//   - anything else: a SQLite file
func OpenProvider(path string) (storage.Provider, error) {
	switch {
	case path == KeyringPath:
		connStr, err := keyringConnString()
		if err != nil {
			return nil, err
		}
		// Secrets from the keyring or environment may carry a password.
		if _, err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		return postgres.New(connStr), nil

	case config.IsPostgres(path):
		if _, err := postgres.ValidateConnString(path); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, merrors.WithHint(err, "store it with 'markease keyring db set' and use --config keyring")
			}
			return nil, err
		}
		return postgres.New(path), nil

	case strings.HasSuffix(strings.ToLower(path), ".json"):
		return storage.NewJSONStore(config.ExpandHome(path)), nil

	default:
		return sqlite.NewStore(config.ExpandHome(path)), nil
	}
}

func keyringConnString() (string, error) {
	if v := strings.TrimSpace(os.Getenv(constants.EnvDBConnection)); v != "" {
		return v, nil
	}
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("no connection string found in keyring or %s", constants.EnvDBConnection)
		}
		return "", err
	}
	return connStr, nil
}
