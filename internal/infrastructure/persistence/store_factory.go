package persistence

import (
	"fmt"

	"github.com/estimate/backend/internal/domain/shared"
	"github.com/estimate/backend/internal/infrastructure/cache"
	"github.com/estimate/backend/internal/infrastructure/config"
	"github.com/estimate/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// NewKeyValueStore opens the store selected by cfg.Storage.Driver
func NewKeyValueStore(cfg *config.Config, log *zap.Logger) (shared.KeyValueStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	storage := cfg.Storage

	switch storage.Driver {
	case config.StorageMemory:
		log.Warn("Using in-memory storage; the sheet will not survive a restart")
		return cache.NewInMemoryKeyValueStore(), nil

	case config.StorageRedis:
		return cache.NewKeyValueStoreFactory(storage.Redis, cache.WithLogger(log)).CreateStore()

	case config.StorageSQLite, config.StoragePostgres:
		gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
		db, err := NewDatabase(&storage, gormLogger)
		if err != nil {
			return nil, err
		}
		store, err := NewGormKeyValueStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		fields := []zap.Field{zap.String("driver", storage.Driver)}
		if storage.Driver == config.StorageSQLite {
			fields = append(fields, zap.String("path", storage.SQLitePath))
		} else {
			fields = append(fields, zap.String("host", storage.Database.Host), zap.String("database", storage.Database.DBName))
		}
		log.Info("Using SQL key-value store", fields...)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", storage.Driver)
	}
}
