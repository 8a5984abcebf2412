package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/kv/kvtest"
)

func setupTestStore(t *testing.T) *Store {
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store
}

func TestContract(t *testing.T) {
	factory := func(t *testing.T) kv.Store { return setupTestStore(t) }
	kvtest.Run(t, factory)
	kvtest.RunLister(t, factory)
}

func TestLoadUninitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	err := store.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("Load() error = %v, want not initialized", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	first := NewStore(path)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if err := first.Set(ctx, "@brahmacharya:mood_logs", "[]"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	second := NewStore(path)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer second.Close()

	v, ok, err := second.Get(ctx, "@brahmacharya:mood_logs")
	if err != nil || !ok || v != "[]" {
		t.Errorf("Get() = (%q, %v, %v), want (\"[]\", true, nil)", v, ok, err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		s := NewStore(path)
		if err := s.Init(ctx); err != nil {
			t.Fatalf("Init() #%d failed: %v", i+1, err)
		}
		s.Close()
	}
}

func TestKeysTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	defer store.Close()

	for _, k := range []string{"@a_b:x", "@aXb:x"} {
		if err := store.Set(ctx, k, "v"); err != nil {
			t.Fatalf("Set(%q) failed: %v", k, err)
		}
	}

	keys, err := store.Keys(ctx, "@a_b:")
	if err != nil {
		t.Fatalf("Keys() failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "@a_b:x" {
		t.Errorf("Keys(@a_b:) = %v, want [@a_b:x]", keys)
	}
}

func TestConnectionsWaitForLocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	if err := NewStore(path).Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}

	stores := map[string]*Store{"init": setupTestStore(t), "load": NewStore(path)}
	if err := stores["load"].Load(context.Background()); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			var timeout int
			if err := store.GetDB().QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
				t.Fatalf("failed to read busy_timeout: %v", err)
			}
			if timeout != busyTimeoutMs {
				t.Errorf("busy_timeout = %d, want %d", timeout, busyTimeoutMs)
			}
		})
	}
}
