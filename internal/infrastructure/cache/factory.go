package cache

import (
	"fmt"

	"github.com/estimate/backend/internal/domain/shared"
	"github.com/estimate/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// KeyValueStoreFactory creates Redis-backed or in-memory stores
type KeyValueStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// KeyValueStoreFactoryOption is a functional option for configuring the factory
type KeyValueStoreFactoryOption func(*KeyValueStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) KeyValueStoreFactoryOption {
	return func(f *KeyValueStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store when Redis is unavailable.
// Default is false: a sheet kept only in memory is lost on restart.
func WithInMemoryFallback(allow bool) KeyValueStoreFactoryOption {
	return func(f *KeyValueStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewKeyValueStoreFactory creates a new factory
func NewKeyValueStoreFactory(cfg config.RedisConfig, opts ...KeyValueStoreFactoryOption) *KeyValueStoreFactory {
	f := &KeyValueStoreFactory{
		redisConfig: cfg,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based store
func (f *KeyValueStoreFactory) CreateRedisStore() (shared.KeyValueStore, error) {
	store, err := NewRedisKeyValueStore(f.redisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis key-value store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates an in-memory store
func (f *KeyValueStoreFactory) CreateInMemoryStore() shared.KeyValueStore {
	return NewInMemoryKeyValueStore()
}

// CreateStore tries Redis first and falls back to memory when allowed
func (f *KeyValueStoreFactory) CreateStore() (shared.KeyValueStore, error) {
	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis key-value store",
			zap.String("addr", f.redisConfig.Addr()),
			zap.String("key_prefix", f.redisConfig.KeyPrefix),
		)
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, err
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory key-value store. "+
		"The sheet will not survive a restart.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
