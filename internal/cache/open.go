package cache

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danielolaszy/bugtable/internal/config"
	"github.com/danielolaszy/bugtable/internal/logging"
)

// Open creates the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.CacheConfig) (Backend, error) {
	logging.Debug("opening cache", "backend", cfg.Backend, "path", cfg.Path, "bucket", cfg.Bucket)

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		return NewSQLiteStore(filepath.Join(cfg.Path, "cache.db"))
	case config.BackendFile:
		return NewFileStore(cfg.Path)
	case config.BackendS3:
		return NewS3StoreFromEnv(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
