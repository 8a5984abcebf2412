package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/brahmacharya/internal/constants"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
backend: redis
namespace: "@journal"
retention: 100
id_scheme: uuid
timezone: Europe/Berlin
redis:
  addr: cache.local:6380
  db: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	want.Backend = constants.BackendRedis
	want.Namespace = "@journal"
	want.Retention = 100
	want.IDScheme = constants.IDSchemeUUID
	want.Timezone = "Europe/Berlin"
	want.Redis = RedisConfig{Addr: "cache.local:6380", DB: 2}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLCannotSetRedisPassword(t *testing.T) {
	path := writeConfig(t, "redis:\n  password: hunter2\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Redis.Password != "" {
		t.Errorf("Redis.Password = %q, want it ignored from YAML", cfg.Redis.Password)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "backend: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Load() with invalid YAML should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "backend: json\nretention: 5\n")
	t.Setenv("BRAHMACHARYA_BACKEND", "postgres")
	t.Setenv("BRAHMACHARYA_DSN", "postgres://me@db/brahmacharya")
	t.Setenv("BRAHMACHARYA_RETENTION", "50")
	t.Setenv("BRAHMACHARYA_REDIS_PASSWORD", "s3cret")
	t.Setenv("BRAHMACHARYA_REDIS_DB", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != constants.BackendPostgres {
		t.Errorf("Backend = %q, want env override", cfg.Backend)
	}
	if cfg.DSN != "postgres://me@db/brahmacharya" {
		t.Errorf("DSN = %q", cfg.DSN)
	}
	if cfg.Retention != 50 {
		t.Errorf("Retention = %d, want 50", cfg.Retention)
	}
	if cfg.Redis.Password != "s3cret" || cfg.Redis.DB != 4 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestEnvOverrideInvalidNumber(t *testing.T) {
	t.Setenv("BRAHMACHARYA_RETENTION", "lots")
	if _, err := Load(""); err == nil {
		t.Error("Load() with non-numeric retention should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Backend = "etcd" }, "unknown backend"},
		{"postgres", func(c *Config) { c.Backend = constants.BackendPostgres; c.DSN = "host=db" }, ""},
		{"unknown id scheme", func(c *Config) { c.IDScheme = "snowflake" }, "unknown id scheme"},
		{"negative retention", func(c *Config) { c.Retention = -1 }, "non-negative"},
		{"empty namespace", func(c *Config) { c.Namespace = "" }, "namespace"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "invalid timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolvedDataPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"sqlite default", Config{Backend: constants.BackendSQLite}, filepath.Join(home, ".config/brahmacharya/brahmacharya.db")},
		{"json default", Config{Backend: constants.BackendJSON}, filepath.Join(home, ".config/brahmacharya/brahmacharya.json")},
		{"explicit absolute", Config{Backend: constants.BackendSQLite, DataPath: "/tmp/x.db"}, "/tmp/x.db"},
		{"explicit home", Config{Backend: constants.BackendJSON, DataPath: "~/journal.json"}, filepath.Join(home, "journal.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.ResolvedDataPath()
			if err != nil {
				t.Fatalf("ResolvedDataPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolvedDataPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
