package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jayainhufs/coding-sam/internal/config"
	"github.com/jayainhufs/coding-sam/internal/storage"
	"github.com/jayainhufs/coding-sam/internal/storage/local"
	"github.com/jayainhufs/coding-sam/internal/storage/postgres"
	"github.com/jayainhufs/coding-sam/internal/storage/sqlite"
)

// openStore creates the progress store selected by cfg.Driver. Relative
// or empty paths are placed under dataDir. The returned close function is
// never nil.
func openStore(ctx context.Context, cfg config.StorageConfig, dataDir string) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), noop, nil

	case config.DriverFile, "":
		path := resolvePath(cfg.Path, dataDir, "progress")
		store, err := local.NewStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		slog.Info("using file store", "path", path)
		return store, noop, nil

	case config.DriverSQLite:
		path := resolvePath(cfg.Path, dataDir, "codingsam.db")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		slog.Info("using sqlite store", "path", path)
		return sqlite.NewKVStore(db), db.Close, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewStore(pool, cfg.Table)
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		slog.Info("using postgres store", "table", cfg.Table)
		return store, func() error { store.Close(); return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func resolvePath(path, dataDir, fallback string) string {
	if path == "" {
		return filepath.Join(dataDir, fallback)
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dataDir, path)
}
