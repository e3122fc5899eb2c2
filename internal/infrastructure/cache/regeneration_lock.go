package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultLockTTL     = 30 * time.Second
	lockRetryInterval  = 100 * time.Millisecond
	lockRetryAttempts  = 20
	lockReleaseTimeout = 2 * time.Second
	lockKeyPrefix      = "invoice:regenerate:"
)

// ErrLockNotObtained is returned when another instance holds the lock past the retry window
var ErrLockNotObtained = errors.New("regeneration lock not obtained")

// RegenerationLocker serialises document regeneration for one invoice across instances
type RegenerationLocker interface {
	// Acquire blocks briefly for the lock; release must be called once the cache write is done
	Acquire(ctx context.Context, invoiceID string) (release func(), err error)
}

// RedisRegenerationLock implements RegenerationLocker with bsm/redislock
type RedisRegenerationLock struct {
	locker *redislock.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRegenerationLock creates a lock on an existing Redis client
func NewRedisRegenerationLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRegenerationLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRegenerationLock{
		locker: redislock.New(client),
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire obtains the lock for invoiceID, retrying on a short linear backoff
func (l *RedisRegenerationLock) Acquire(ctx context.Context, invoiceID string) (func(), error) {
	lock, err := l.locker.Obtain(ctx, lockKeyPrefix+invoiceID, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryInterval), lockRetryAttempts),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain regeneration lock: %w", err)
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Failed to release regeneration lock",
				zap.String("invoice_id", invoiceID),
				zap.Error(err))
		}
	}
	return release, nil
}

// NoopRegenerationLock always succeeds immediately
type NoopRegenerationLock struct{}

// Acquire returns a no-op release
func (NoopRegenerationLock) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

var (
	_ RegenerationLocker = (*RedisRegenerationLock)(nil)
	_ RegenerationLocker = NoopRegenerationLock{}
)
