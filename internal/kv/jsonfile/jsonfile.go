// Package jsonfile stores every key in a single JSON document on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/lockfile"
)

const documentVersion = 1

var _ kv.Updater = (*Store)(nil)

// ErrNotInitialized is returned by Load when the file does not exist
var ErrNotInitialized = errors.New("storage not initialized, run '" + constants.AppName + " init' first")

type document struct {
	Version int               `json:"version"`
	Entries map[string]string `json:"entries"`
}

// Store takes a lock file around every write, including each Update's
// read-modify-write. Reads see the last completed write.
type Store struct {
	path     string
	lockOpts lockfile.Options

	mu     sync.Mutex
	loaded bool
	closed bool
}

func New(path string) *Store {
	return &Store{path: path}
}

// WithLockOptions overrides lock retry behaviour
func (s *Store) WithLockOptions(opts lockfile.Options) *Store {
	s.lockOpts = opts
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	if err := s.write(&document{Version: documentVersion, Entries: map[string]string{}}); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.read(); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return "", false, err
	}

	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Entries[key]
	return v, ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.mutate(ctx, func(entries map[string]string) error {
		entries[key] = value
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.mutate(ctx, func(entries map[string]string) error {
		delete(entries, key)
		return nil
	})
}

// Update runs fn on the stored value under the lock file, so concurrent
// updates from other processes are applied one after another
func (s *Store) Update(ctx context.Context, key string, fn func(old string, ok bool) (string, error)) error {
	return s.mutate(ctx, func(entries map[string]string) error {
		old, ok := entries[key]
		value, err := fn(old, ok)
		if err != nil {
			return err
		}
		entries[key] = value
		return nil
	})
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	var keys []string
	for k := range doc.Entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// mutate performs a locked read-modify-write of the whole document
func (s *Store) mutate(ctx context.Context, fn func(map[string]string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}

	lock, err := lockfile.Acquire(ctx, s.path+constants.LockfileSuffix, s.lockOpts)
	if err != nil {
		return err
	}
	defer lock.Release()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(doc.Entries); err != nil {
		return err
	}
	return s.write(doc)
}

func (s *Store) usable() error {
	if s.closed {
		return kv.ErrClosed
	}
	if !s.loaded {
		return errors.New("storage not loaded")
	}
	return nil
}

func (s *Store) read() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("storage version (%d) is newer than supported version (%d)", doc.Version, documentVersion)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]string)
	}
	return doc, nil
}

// write replaces the file atomically so a crash never leaves half a document
func (s *Store) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

// Verify checks that path holds a readable document of a supported version
func Verify(path string) error {
	_, err := (&Store{path: path}).read()
	return err
}
