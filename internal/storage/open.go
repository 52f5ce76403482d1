package storage

import (
	"context"
	"fmt"
)

// Options selects and configures a backend for Open
type Options struct {
	Backend string // "sqlite", "redis" or "file"
	DataDir string
	Redis   RedisConfig
}

// Open returns the Store selected by opts.Backend
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "sqlite":
		return NewSQLiteStore(opts.DataDir)
	case "redis":
		return NewRedisStore(ctx, opts.Redis)
	case "file":
		return NewFileStore(opts.DataDir)
	default:
		return nil, fmt.Errorf("%q: %w", opts.Backend, ErrUnknownBackend)
	}
}
