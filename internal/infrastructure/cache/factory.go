package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/invoicing/backend/internal/domain/shared"
)

// Factory builds the Redis-backed components, or their in-process
// equivalents when no Redis client is available
type Factory struct {
	client *redis.Client
	logger *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory creates a factory; client may be nil
func NewFactory(client *redis.Client, opts ...FactoryOption) *Factory {
	f := &Factory{
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IdempotencyStore returns the Redis store when a client is available.
// The in-memory store does not share state across process instances,
// which can lead to duplicate notifications in distributed deployments.
func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client != nil {
		f.logger.Info("Using Redis idempotency store")
		return NewRedisIdempotencyStore(f.client, "")
	}
	f.logger.Warn("Redis disabled, using in-memory idempotency store")
	return NewInMemoryIdempotencyStore()
}

// RegenerationLock returns the Redis lock when a client is available
func (f *Factory) RegenerationLock(ttl time.Duration) RegenerationLocker {
	if f.client != nil {
		return NewRedisRegenerationLock(f.client, ttl, f.logger)
	}
	f.logger.Info("Redis disabled, regeneration is guarded in-process only")
	return NoopRegenerationLock{}
}
