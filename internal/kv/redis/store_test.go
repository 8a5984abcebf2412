package redis

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/kv/kvtest"
)

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@brahmacharya:", "@brahmacharya:"},
		{"a*b", `a\*b`},
		{"a?b", `a\?b`},
		{"[ns]", `\[ns\]`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := escapeGlob(tt.in); got != tt.want {
				t.Errorf("escapeGlob(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClosedStore(t *testing.T) {
	s := New(Options{Addr: "127.0.0.1:1"})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, _, err := s.Get(context.Background(), "k"); !errors.Is(err, kv.ErrClosed) {
		t.Errorf("Get() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestPath(t *testing.T) {
	s := New(Options{Addr: "localhost:6379", Password: "secret"})
	defer s.Close()
	if got := s.Path(); got != "redis://localhost:6379" {
		t.Errorf("Path() = %q", got)
	}
}

// TestStoreIntegration runs the kv contract against a real server.
// Example: REDIS_TEST_ADDR=localhost:6379 (uses DB 15, which is flushed)
func TestStoreIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis integration test")
	}

	factory := func(t *testing.T) kv.Store {
		s := New(Options{Addr: addr, Password: os.Getenv("REDIS_TEST_PASSWORD"), DB: 15})
		ctx := context.Background()
		if err := s.Init(ctx); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}
		if err := s.rdb.FlushDB(ctx).Err(); err != nil {
			t.Fatalf("FlushDB() failed: %v", err)
		}
		return s
	}

	kvtest.Run(t, factory)
	kvtest.RunLister(t, factory)
}
