// Package config loads the optional YAML settings file and applies
// BRAHMACHARYA_* environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/brahmacharya/internal/constants"
)

// RedisConfig holds the Redis backend connection. The password is never
// read from the YAML file.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"`
}

type Config struct {
	Backend   constants.Backend  `yaml:"backend"`
	DataPath  string             `yaml:"data_path"`
	DSN       string             `yaml:"dsn"`
	Namespace string             `yaml:"namespace"`
	Retention int                `yaml:"retention"`
	IDScheme  constants.IDScheme `yaml:"id_scheme"`
	Timezone  string             `yaml:"timezone"`
	Redis     RedisConfig        `yaml:"redis"`
}

// Default returns the settings used when no file or environment says otherwise
func Default() Config {
	return Config{
		Backend:   constants.BackendSQLite,
		Namespace: constants.DefaultNamespace,
		Retention: constants.DefaultRetention,
		IDScheme:  constants.IDSchemeTimestamp,
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return cfg, err
		}
		data, err := os.ReadFile(expanded)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file %s: %w", expanded, err)
			}
		}
	}

	if err := OverrideFromEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// OverrideFromEnv applies BRAHMACHARYA_* variables to cfg
func OverrideFromEnv(cfg *Config) error {
	if v := getenv("BACKEND"); v != "" {
		cfg.Backend = constants.Backend(v)
	}
	if v := getenv("DATA_PATH"); v != "" {
		cfg.DataPath = v
	}
	if v := getenv("DSN"); v != "" {
		cfg.DSN = v
	}
	if v := getenv("NAMESPACE"); v != "" {
		cfg.Namespace = v
	}
	if v := getenv("RETENTION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRETENTION %q: %w", constants.EnvPrefix, v, err)
		}
		cfg.Retention = n
	}
	if v := getenv("ID_SCHEME"); v != "" {
		cfg.IDScheme = constants.IDScheme(v)
	}
	if v := getenv("TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sREDIS_DB %q: %w", constants.EnvPrefix, v, err)
		}
		cfg.Redis.DB = n
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	return nil
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(constants.EnvPrefix + name))
}

func (c Config) Validate() error {
	switch c.Backend {
	case constants.BackendMemory, constants.BackendJSON, constants.BackendSQLite, constants.BackendPostgres, constants.BackendRedis:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.IDScheme {
	case constants.IDSchemeTimestamp, constants.IDSchemeUUID:
	default:
		return fmt.Errorf("unknown id scheme %q", c.IDScheme)
	}

	if c.Retention < 0 {
		return fmt.Errorf("retention must be non-negative, got %d", c.Retention)
	}
	if c.Namespace == "" {
		return errors.New("namespace cannot be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone, defaulting to the system zone
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ResolvedDataPath returns the expanded file path for file-based backends
func (c Config) ResolvedDataPath() (string, error) {
	path := c.DataPath
	if path == "" {
		path = constants.DefaultDataPath
		if c.Backend == constants.BackendJSON {
			path = strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
		}
	}
	return ExpandPath(path)
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
