package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/DCM_Go/internal/config"
	"github.com/osse101/DCM_Go/internal/database"
	"github.com/osse101/DCM_Go/internal/database/memory"
	"github.com/osse101/DCM_Go/internal/database/postgres"
	"github.com/osse101/DCM_Go/internal/repository"
)

// Storage is the scenario repository chosen by STORAGE_DRIVER plus whatever
// must be released with it
type Storage struct {
	Scenarios repository.Scenario
	pool      database.Pool
}

// Close releases the database pool, if any
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
		slog.Info(LogMsgStorageClosed)
	}
}

// InitializeStorage opens scenario storage. PostgreSQL storage is migrated
// before use unless RUN_MIGRATIONS is false.
func InitializeStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if !cfg.UsePostgres() {
		slog.Info(LogMsgUsingMemoryStorage)
		return &Storage{Scenarios: memory.NewScenarioRepository()}, nil
	}

	pool, err := database.NewPool(ctx, cfg.GetDBConnString(), database.PoolConfig{
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnIdle: cfg.DBMaxConnIdle,
		MaxConnLife: cfg.DBMaxConnLife,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectDB, err)
	}

	if cfg.RunMigrations {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedMigrate, err)
		}
	} else {
		slog.Info(LogMsgMigrationsSkipped)
	}

	slog.Info(LogMsgUsingPostgresStorage, "host", cfg.DBHost, "db", cfg.DBName)
	return &Storage{Scenarios: postgres.NewScenarioRepository(pool), pool: pool}, nil
}
