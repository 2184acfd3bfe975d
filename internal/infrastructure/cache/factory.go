package cache

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StoreFactory creates cache stores based on configuration
type StoreFactory struct {
	redisConfig           RedisConfig
	redisEnabled          bool
	keyPrefix             string
	defaultTTL            time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithRedis enables Redis with the given connection settings
func WithRedis(cfg RedisConfig) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.redisConfig = cfg
		f.redisEnabled = true
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(keyPrefix string, defaultTTL time.Duration, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		keyPrefix:             keyPrefix,
		defaultTTL:            defaultTTL,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when enabled and reachable, the in-memory store otherwise
func (f *StoreFactory) CreateStore() (Store, error) {
	if !f.redisEnabled {
		f.logger.Info("Using in-memory lookup cache")
		return NewMemoryStore(f.defaultTTL, 2*f.defaultTTL), nil
	}

	store, err := NewRedisStore(f.redisConfig, f.keyPrefix, f.defaultTTL)
	if err == nil {
		f.logger.Info("Using Redis lookup cache", zap.String("addr", fmt.Sprintf("%s:%d", f.redisConfig.Host, f.redisConfig.Port)))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for lookup cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory lookup cache", zap.Error(err))
	return NewMemoryStore(f.defaultTTL, 2*f.defaultTTL), nil
}
