// Package lockfile guards a file-backed store against concurrent writers in
// other processes. A lock left behind by a process that no longer exists is
// treated as stale and taken over.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// ErrLocked is returned when another live process keeps holding the lock
var ErrLocked = errors.New("store is locked by another process")

// Lock is a held lock file
type Lock struct {
	path string
	info os.FileInfo
}

// Options tunes acquisition retries; zero values use the package defaults
type Options struct {
	Attempts int
	Delay    time.Duration
}

// Acquire takes the lock at path, retrying while a live owner holds it.
func Acquire(ctx context.Context, path string, opts Options) (*Lock, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = constants.LockRetryAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = constants.LockRetryDelay
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	for attempt := 0; attempt < opts.Attempts; attempt++ {
		lock, err := tryCreate(path)
		if err != nil {
			return nil, err
		}
		if lock != nil {
			return lock, nil
		}

		if info, stale, reason := isStale(path); stale {
			logger.Warn("Removing stale lock file", "path", path, "reason", reason)
			if err := removeStale(path, info); err != nil {
				return nil, err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Delay):
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrLocked, path)
}

// Release removes the lock file if it is still the one Acquire created.
// Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""

	current, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if l.info != nil && !os.SameFile(l.info, current) {
		logger.Warn("Lock file was replaced while held", "path", path)
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// tryCreate writes the owner record to a temp file and hard-links it into
// place, so the lock never exists without its content. A nil Lock means
// another owner holds it.
func tryCreate(path string) (*Lock, error) {
	pid := getpidFunc()
	exe := ""
	if p, err := findProcessFunc(pid); err == nil && p != nil {
		exe = p.Executable()
	}
	content := fmt.Sprintf("%d|%s", pid, exe)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	err = os.Link(tmp.Name(), path)
	switch {
	case err == nil:
	case os.IsExist(err):
		return nil, nil
	default:
		// Filesystem without hard links
		if err := createExclusive(path, content); err != nil {
			if os.IsExist(err) {
				return nil, nil
			}
			return nil, err
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat lock file: %w", err)
	}
	return &Lock{path: path, info: info}, nil
}

func createExclusive(path, content string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return err
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// isStale reports whether the owner recorded in the lock file is gone. The
// returned FileInfo identifies the file that was judged.
func isStale(path string) (os.FileInfo, bool, string) {
	info, err := os.Stat(path)
	if err != nil {
		// Vanished between the create attempt and now; just retry
		return nil, false, ""
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, ""
	}

	parts := strings.SplitN(strings.TrimSpace(string(content)), "|", 2)
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		// An owner may still be writing it
		if time.Since(info.ModTime()) < constants.LockStaleGrace {
			return nil, false, ""
		}
		return info, true, "malformed lock file"
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return info, true, fmt.Sprintf("process %d not running", pid)
	}

	// A recycled PID belongs to some other program
	if len(parts) == 2 && parts[1] != "" && process.Executable() != parts[1] {
		return info, true, fmt.Sprintf("process %d is %s, not %s", pid, process.Executable(), parts[1])
	}

	return nil, false, ""
}

// removeStale moves the judged lock aside before deleting it. If another
// waiter already replaced it with a live lock, that lock is put back.
func removeStale(path string, judged os.FileInfo) error {
	aside := fmt.Sprintf("%s.stale.%d.%d", path, getpidFunc(), time.Now().UnixNano())
	if err := os.Rename(path, aside); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove stale lock: %w", err)
	}
	defer os.Remove(aside)

	moved, err := os.Stat(aside)
	if err == nil && judged != nil && !os.SameFile(judged, moved) {
		if err := os.Link(aside, path); err != nil && !os.IsExist(err) {
			logger.Warn("Failed to restore lock file", "path", path, "error", err)
		}
	}
	return nil
}
