package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/brahmacharya/internal/config"
	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/storage"
	"github.com/julianstephens/brahmacharya/internal/tracker"
)

// Context is handed to every command's Run method
type Context struct {
	Config  config.Config
	KV      kv.Store
	Store   *storage.Storage
	Tracker *tracker.Service
	Out     io.Writer
	Timeout time.Duration
}

// NewContext wires the storage adapter and tracker over an opened kv store
func NewContext(cfg config.Config, store kv.Store, timeout time.Duration) (*Context, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	adapter := storage.New(store, cfg.Namespace)
	return &Context{
		Config: cfg,
		KV:     store,
		Store:  adapter,
		Tracker: tracker.New(adapter,
			tracker.WithLocation(loc),
			tracker.WithRetention(cfg.Retention),
			tracker.WithIDScheme(cfg.IDScheme),
		),
		Out:     os.Stdout,
		Timeout: timeout,
	}, nil
}

// Ctx returns the context for one store round trip, bounded by --timeout
func (c *Context) Ctx() (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(context.Background(), c.Timeout)
	}
	return context.WithCancel(context.Background())
}

// Location describes where the store lives
func (c *Context) Location() string {
	if l, ok := c.KV.(kv.Locator); ok {
		return l.Path()
	}
	return string(c.Config.Backend)
}

func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}
