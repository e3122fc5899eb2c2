package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/invoicing/backend/internal/domain/shared"
)

const defaultIdempotencyPrefix = "invoice:event:"

// RedisIdempotencyStore keeps order-placed event ids in Redis so every
// instance behind the webhook sees the same deliveries
type RedisIdempotencyStore struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisIdempotencyStore does not take ownership of rdb
func NewRedisIdempotencyStore(rdb redis.Cmdable, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = defaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{rdb: rdb, prefix: prefix}
}

func (s *RedisIdempotencyStore) key(eventID string) string {
	return s.prefix + eventID
}

// MarkProcessed reports whether eventID was claimed by this call. The claim
// expires after ttl.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	claimed, err := s.rdb.SetNX(ctx, s.key(eventID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim event %s: %w", eventID, err)
	}
	return claimed, nil
}

// Forget releases the claim so a redelivered event is handled again
func (s *RedisIdempotencyStore) Forget(ctx context.Context, eventID string) error {
	if err := s.rdb.Del(ctx, s.key(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to release event %s: %w", eventID, err)
	}
	return nil
}

// Close leaves the client open; its owner closes it
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
