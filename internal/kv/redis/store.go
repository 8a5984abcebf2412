// Package redis is a kv.Store on a Redis server using plain GET, SET and DEL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/brahmacharya/internal/kv"
)

// Options configures the connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

type Store struct {
	rdb    *goredis.Client
	addr   string
	closed bool
}

func New(opts Options) *Store {
	return &Store{
		rdb: goredis.NewClient(&goredis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		addr: opts.Addr,
	}
}

// NewFromClient wraps an existing client
func NewFromClient(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb, addr: rdb.Options().Addr}
}

// Init checks the server is reachable; Redis needs no schema
func (s *Store) Init(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Store) Load(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", s.addr, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s.closed {
		return "", false, kv.ErrClosed
	}

	value, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if s.closed {
		return kv.ErrClosed
	}
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed {
		return kv.ErrClosed
	}
	return s.rdb.Del(ctx, key).Err()
}

// Keys walks the keyspace with SCAN rather than KEYS so large databases are
// not blocked.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.closed {
		return nil, kv.ErrClosed
	}

	var keys []string
	iter := s.rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rdb.Close()
}

// Path identifies the server without exposing credentials
func (s *Store) Path() string {
	return "redis://" + s.addr
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes the characters MATCH treats as a pattern
func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
