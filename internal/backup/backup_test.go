package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/kv/jsonfile"
	"github.com/julianstephens/brahmacharya/internal/kv/sqlite"
)

const streakKey = "@brahmacharya:streak_data"

// setupSQLite creates an initialized database holding one streak record
func setupSQLite(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "brahmacharya.db")

	store := sqlite.NewStore(path)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	if err := store.Set(ctx, streakKey, `{"currentStreak":1}`); err != nil {
		t.Fatalf("failed to seed database: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}
	return path
}

func setupJSON(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "brahmacharya.json")

	store := jsonfile.New(path)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init json store: %v", err)
	}
	if err := store.Set(ctx, streakKey, `{"currentStreak":1}`); err != nil {
		t.Fatalf("failed to seed json store: %v", err)
	}
	return path
}

// steppingClock advances one second per call so backup names differ
func steppingClock() func() time.Time {
	now := time.Date(2024, 3, 1, 7, 0, 0, 0, time.Local)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestManager(t *testing.T, path string, backend constants.Backend) *Manager {
	t.Helper()
	mgr, err := NewManager(path, backend)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	mgr.now = steppingClock()
	return mgr
}

func readStreak(t *testing.T, path string, backend constants.Backend) string {
	t.Helper()
	ctx := context.Background()

	var (
		value string
		err   error
	)
	switch backend {
	case constants.BackendSQLite:
		store := sqlite.NewStore(path)
		if err := store.Load(ctx); err != nil {
			t.Fatalf("failed to load database: %v", err)
		}
		defer store.Close()
		value, _, err = store.Get(ctx, streakKey)
	default:
		store := jsonfile.New(path)
		if err := store.Load(ctx); err != nil {
			t.Fatalf("failed to load json store: %v", err)
		}
		value, _, err = store.Get(ctx, streakKey)
	}
	if err != nil {
		t.Fatalf("failed to read streak: %v", err)
	}
	return value
}

func writeStreak(t *testing.T, path string, backend constants.Backend, value string) {
	t.Helper()
	ctx := context.Background()
	switch backend {
	case constants.BackendSQLite:
		store := sqlite.NewStore(path)
		if err := store.Load(ctx); err != nil {
			t.Fatalf("failed to load database: %v", err)
		}
		defer store.Close()
		if err := store.Set(ctx, streakKey, value); err != nil {
			t.Fatalf("failed to write streak: %v", err)
		}
	default:
		store := jsonfile.New(path)
		if err := store.Load(ctx); err != nil {
			t.Fatalf("failed to load json store: %v", err)
		}
		if err := store.Set(ctx, streakKey, value); err != nil {
			t.Fatalf("failed to write streak: %v", err)
		}
	}
}

func TestNewManagerRejectsRemoteBackends(t *testing.T) {
	for _, backend := range []constants.Backend{constants.BackendPostgres, constants.BackendRedis, constants.BackendMemory} {
		if _, err := NewManager("/tmp/x", backend); err != ErrUnsupportedBackend {
			t.Errorf("NewManager(%q) error = %v, want ErrUnsupportedBackend", backend, err)
		}
	}
}

func TestBackupAndRestore(t *testing.T) {
	tests := []struct {
		name    string
		backend constants.Backend
		setup   func(*testing.T) string
	}{
		{"sqlite", constants.BackendSQLite, setupSQLite},
		{"json", constants.BackendJSON, setupJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			mgr := newTestManager(t, path, tt.backend)

			backupPath, err := mgr.CreateBackup()
			if err != nil {
				t.Fatalf("CreateBackup() error = %v", err)
			}
			if got := readStreak(t, backupPath, tt.backend); got != `{"currentStreak":1}` {
				t.Errorf("backup holds %q", got)
			}

			writeStreak(t, path, tt.backend, `{"currentStreak":2}`)

			previous, err := mgr.RestoreBackup(backupPath)
			if err != nil {
				t.Fatalf("RestoreBackup() error = %v", err)
			}
			if previous == "" {
				t.Error("RestoreBackup() did not back up the current data first")
			}
			if got := readStreak(t, path, tt.backend); got != `{"currentStreak":1}` {
				t.Errorf("after restore streak = %q, want the backed-up value", got)
			}
			if got := readStreak(t, previous, tt.backend); got != `{"currentStreak":2}` {
				t.Errorf("pre-restore backup holds %q, want the replaced value", got)
			}

			backups, err := mgr.ListBackups()
			if err != nil {
				t.Fatalf("ListBackups() error = %v", err)
			}
			if len(backups) != 2 {
				t.Errorf("expected 2 backups after restore, got %d", len(backups))
			}
		})
	}
}

func TestBackupRotation(t *testing.T) {
	path := setupSQLite(t)
	mgr := newTestManager(t, path, constants.BackendSQLite)

	numBackups := constants.MaxBackups + 5
	for i := 0; i < numBackups; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Errorf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups are not sorted correctly: backup %d is newer than backup %d", i, i-1)
		}
	}
}

func TestListBackups(t *testing.T) {
	path := setupJSON(t)
	mgr := newTestManager(t, path, constants.BackendJSON)

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected 0 backups initially, got %d", len(backups))
	}

	for i := 0; i < 3; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}
	// Unrelated files in the directory are ignored
	if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	backups, err = mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Errorf("expected 3 backups, got %d", len(backups))
	}
	for _, b := range backups {
		if b.Path == "" || b.Size == 0 || b.Timestamp.IsZero() {
			t.Errorf("incomplete backup info: %+v", b)
		}
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	path := setupSQLite(t)
	mgr := newTestManager(t, path, constants.BackendSQLite)
	fixed := time.Date(2024, 3, 1, 7, 0, 0, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	paths := make(map[string]bool)
	for i := 0; i < 5; i++ {
		backupPath, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
		name := filepath.Base(backupPath)
		if paths[name] {
			t.Errorf("duplicate backup filename: %s", name)
		}
		paths[name] = true
	}

	backups, _ := mgr.ListBackups()
	if len(backups) != 5 {
		t.Errorf("expected 5 listed backups with counters, got %d", len(backups))
	}
}

func TestParseBackupName(t *testing.T) {
	tests := []struct {
		name   string
		suffix string
		wantOK bool
	}{
		{"brahmacharya-20240301-070001.db", ".db", true},
		{"brahmacharya-20240301-070001-3.db", ".db", true},
		{"brahmacharya-20240301-070001.json", ".db", false},
		{"brahmacharya-20240301-0700.db", ".db", false},
		{"brahmacharya-20240301-070001-x.db", ".db", false},
		{"other-20240301-070001.db", ".db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseBackupName(tt.name, tt.suffix)
			if ok != tt.wantOK {
				t.Errorf("parseBackupName(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
		})
	}
}

func TestBackupWithNoDataFile(t *testing.T) {
	mgr := newTestManager(t, filepath.Join(t.TempDir(), "nonexistent.db"), constants.BackendSQLite)
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("expected error when backing up a missing data file")
	}
}

func TestRestoreWithCorruptedBackup(t *testing.T) {
	tests := []struct {
		name    string
		backend constants.Backend
		setup   func(*testing.T) string
		content string
	}{
		{"sqlite", constants.BackendSQLite, setupSQLite, "not a valid sqlite database"},
		{"json", constants.BackendJSON, setupJSON, "{not json"},
		{"json from the future", constants.BackendJSON, setupJSON, `{"version":99,"entries":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			mgr := newTestManager(t, path, tt.backend)
			if err := os.MkdirAll(mgr.GetBackupDir(), 0700); err != nil {
				t.Fatalf("failed to create backup dir: %v", err)
			}
			corrupted := filepath.Join(mgr.GetBackupDir(), "corrupted")
			if err := os.WriteFile(corrupted, []byte(tt.content), 0600); err != nil {
				t.Fatalf("failed to create corrupted file: %v", err)
			}

			if _, err := mgr.RestoreBackup(corrupted); err == nil {
				t.Error("expected error when restoring from corrupted backup")
			}
			if got := readStreak(t, path, tt.backend); got != `{"currentStreak":1}` {
				t.Errorf("data changed by failed restore: %q", got)
			}
		})
	}
}

func TestRestoreMissingBackup(t *testing.T) {
	mgr := newTestManager(t, setupSQLite(t), constants.BackendSQLite)
	if _, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error when restoring a missing backup")
	}
}
