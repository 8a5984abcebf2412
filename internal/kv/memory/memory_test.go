package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/kv/kvtest"
)

func TestContract(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store { return New() })
	kvtest.RunLister(t, func(t *testing.T) kv.Store { return New() })
}

func TestFaultInjection(t *testing.T) {
	ctx := context.Background()
	s := NewWithData(map[string]string{"@ns:mood_logs": "[]"})
	boom := errors.New("device store unavailable")

	s.FailGet(boom)
	if _, _, err := s.Get(ctx, "@ns:mood_logs"); !errors.Is(err, boom) {
		t.Errorf("Get() error = %v, want %v", err, boom)
	}
	s.FailGet(nil)

	s.FailSet(boom)
	if err := s.Set(ctx, "@ns:mood_logs", "[1]"); !errors.Is(err, boom) {
		t.Errorf("Set() error = %v, want %v", err, boom)
	}
	if got := s.Snapshot()["@ns:mood_logs"]; got != "[]" {
		t.Errorf("failed Set changed stored value to %q", got)
	}
	if s.SetCount() != 0 {
		t.Errorf("SetCount() = %d, want 0", s.SetCount())
	}
	s.FailSet(nil)

	s.FailDelete(boom)
	if err := s.Delete(ctx, "@ns:mood_logs"); !errors.Is(err, boom) {
		t.Errorf("Delete() error = %v, want %v", err, boom)
	}
}

func TestClosedStoreReturnsErrClosed(t *testing.T) {
	s := New()
	_ = s.Close()
	if err := s.Set(context.Background(), "k", "v"); !kvtest.IsClosed(err) {
		t.Errorf("Set() after Close error = %v, want kv.ErrClosed", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewWithData(map[string]string{"k": "v"})
	snap := s.Snapshot()
	snap["k"] = "changed"
	if got, _, _ := s.Get(context.Background(), "k"); got != "v" {
		t.Errorf("mutating Snapshot changed store: got %q", got)
	}
}
