package cli

import (
	"errors"
	"fmt"

	"github.com/julianstephens/brahmacharya/internal/config"
	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/keyring"
	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/kv/jsonfile"
	"github.com/julianstephens/brahmacharya/internal/kv/memory"
	"github.com/julianstephens/brahmacharya/internal/kv/postgres"
	"github.com/julianstephens/brahmacharya/internal/kv/redis"
	"github.com/julianstephens/brahmacharya/internal/kv/sqlite"
	"github.com/julianstephens/brahmacharya/internal/logger"
)

// OpenBackend builds the kv store cfg selects. Secrets missing from the
// environment are looked up in the OS keyring. The store is not yet loaded.
func OpenBackend(cfg config.Config) (kv.Store, error) {
	switch cfg.Backend {
	case constants.BackendMemory:
		return memory.New(), nil

	case constants.BackendJSON:
		path, err := cfg.ResolvedDataPath()
		if err != nil {
			return nil, err
		}
		return jsonfile.New(path), nil

	case constants.BackendSQLite:
		path, err := cfg.ResolvedDataPath()
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil

	case constants.BackendPostgres:
		dsn, err := postgresDSN(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.New(dsn), nil

	case constants.BackendRedis:
		password := cfg.Redis.Password
		if password == "" {
			secret, err := keyring.GetSecret(constants.BackendRedis)
			switch {
			case err == nil:
				password = secret
			case !errors.Is(err, keyring.ErrNotFound):
				logger.Warn("Could not read redis password from keyring", "error", err)
			}
		}
		return redis.New(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: password,
			DB:       cfg.Redis.DB,
		}), nil
	}

	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// postgresDSN prefers the configured connection string, which must not
// embed a password, and falls back to the keyring, which may.
func postgresDSN(cfg config.Config) (string, error) {
	if cfg.DSN != "" {
		if _, err := postgres.ValidateConnString(cfg.DSN); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return "", fmt.Errorf("%w: store it with '%s keyring set postgres' or use .pgpass", err, constants.AppName)
			}
			return "", err
		}
		return cfg.DSN, nil
	}

	dsn, err := keyring.GetSecret(constants.BackendPostgres)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("no postgres connection string configured; set dsn, %sDSN or '%s keyring set postgres'", constants.EnvPrefix, constants.AppName)
		}
		return "", err
	}
	return dsn, nil
}
