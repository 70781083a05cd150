// Package backend picks the storage implementation named in the config.
package backend

import (
	"context"
	"fmt"

	"github.com/andrestovio/module10-is601/internal/config"
	"github.com/andrestovio/module10-is601/internal/storage"
	"github.com/andrestovio/module10-is601/internal/storage/postgres"
	"github.com/andrestovio/module10-is601/internal/storage/sqlite"
)

// Open connects to the configured database and ensures the schema exists.
func Open(ctx context.Context, cfg config.Database) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
