// Package kvtest holds the behavioural contract every kv.Store backend must
// satisfy, run from each backend's tests.
package kvtest

import (
	"context"
	"errors"
	"testing"

	"github.com/julianstephens/brahmacharya/internal/kv"
)

// Factory returns a fresh, empty store for one subtest
type Factory func(t *testing.T) kv.Store

// Run exercises the kv.Store contract against stores built by newStore
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		v, ok, err := s.Get(ctx, "@test:missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok || v != "" {
			t.Errorf("Get() = (%q, %v), want (\"\", false)", v, ok)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		value := `[{"id":"1700000000000","date":"2024-01-01T00:00:00.000Z","mood":"good"}]`
		if err := s.Set(ctx, "@test:mood_logs", value); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := s.Get(ctx, "@test:mood_logs")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || got != value {
			t.Errorf("Get() = (%q, %v), want (%q, true)", got, ok, value)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for _, v := range []string{"first", "second", "true"} {
			if err := s.Set(ctx, "@test:onboarding_complete", v); err != nil {
				t.Fatalf("Set(%q) error = %v", v, err)
			}
		}
		got, _, err := s.Get(ctx, "@test:onboarding_complete")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != "true" {
			t.Errorf("Get() = %q, want %q", got, "true")
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		if err := s.Set(ctx, "@test:streak_data", "{}"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := s.Delete(ctx, "@test:streak_data"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, ok, err := s.Get(ctx, "@test:streak_data"); err != nil || ok {
			t.Errorf("Get() after Delete = (ok=%v, err=%v), want (false, nil)", ok, err)
		}
		// Deleting a missing key is not an error
		if err := s.Delete(ctx, "@test:streak_data"); err != nil {
			t.Errorf("Delete() of missing key error = %v", err)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		if err := s.Set(ctx, "@a:mood_logs", "a"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := s.Set(ctx, "@b:mood_logs", "b"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, _, _ := s.Get(ctx, "@a:mood_logs")
		if got != "a" {
			t.Errorf("Get(@a) = %q, want %q", got, "a")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := s.Set(cctx, "@test:k", "v"); err == nil {
			t.Error("Set() with cancelled context should fail")
		}
	})

	t.Run("closed store", func(t *testing.T) {
		s := newStore(t)
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		_, _, err := s.Get(ctx, "@test:k")
		if err == nil {
			t.Error("Get() after Close should fail")
		}
	})
}

// RunLister checks prefix enumeration for backends that implement kv.Lister
func RunLister(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	s := newStore(t)
	defer s.Close()

	lister, ok := s.(kv.Lister)
	if !ok {
		t.Fatalf("%T does not implement kv.Lister", s)
	}

	for _, k := range []string{"@ns:mood_logs", "@ns:streak_data", "@other:mood_logs"} {
		if err := s.Set(ctx, k, "x"); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	keys, err := lister.Keys(ctx, "@ns:")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{"@ns:mood_logs", "@ns:streak_data"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

// IsClosed reports whether err signals a closed store
func IsClosed(err error) bool {
	return errors.Is(err, kv.ErrClosed)
}
