package storage

import (
	"context"
	"fmt"

	"github.com/dailyfocus/focus/internal/database"
	"github.com/dailyfocus/focus/internal/migrations"
)

// Store is a KV backend with a health check and owned resources.
type Store interface {
	KV
	Check(ctx context.Context) error
	Close() error
}

type Options struct {
	Backend     string
	DBPath      string
	RedisURL    string
	RedisPrefix string
	DataDir     string
}

// Open returns the backend named by opts.Backend. The sqlite backend has
// its migrations applied before it is returned.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "sqlite":
		db, err := database.Open(ctx, opts.DBPath)
		if err != nil {
			return nil, err
		}
		if err := migrations.Run(db); err != nil {
			db.Close()
			return nil, err
		}
		return NewSQLite(db), nil
	case "redis":
		return OpenRedis(ctx, opts.RedisURL, opts.RedisPrefix)
	case "file":
		return NewFile(opts.DataDir)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
