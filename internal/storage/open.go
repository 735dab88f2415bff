package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-lms/internal/platform/cache"
	"github.com/p-n-ai/pai-lms/internal/platform/database"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	FileDir     string
	SQLitePath  string
	DatabaseURL string
	MaxConns    int
	MinConns    int
	CacheURL    string
}

// Opened is a backend together with the connections it depends on.
type Opened struct {
	Backend Backend
	// DB is set for the postgres driver so callers can share the pool.
	DB *database.DB

	closers []func()
}

// Close releases the backend and any pools opened for it.
func (o *Opened) Close() {
	if err := o.Backend.Close(); err != nil {
		slog.Warn("closing storage backend", "error", err)
	}
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
}

// Open creates the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (*Opened, error) {
	switch opts.Driver {
	case DriverMemory:
		return &Opened{Backend: NewMemory()}, nil

	case DriverFile:
		b, err := NewFile(opts.FileDir)
		if err != nil {
			return nil, err
		}
		return &Opened{Backend: b}, nil

	case DriverSQLite:
		b, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Opened{Backend: b}, nil

	case DriverPostgres:
		db, err := database.New(ctx, opts.DatabaseURL, opts.MaxConns, opts.MinConns)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		b, err := NewPostgres(db.Pool)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Opened{Backend: b, DB: db, closers: []func(){db.Close}}, nil

	case DriverRedis:
		c, err := cache.New(ctx, opts.CacheURL)
		if err != nil {
			return nil, err
		}
		b, err := NewRedis(c.Client)
		if err != nil {
			c.Close()
			return nil, err
		}
		return &Opened{Backend: b, closers: []func(){func() { _ = c.Close() }}}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
