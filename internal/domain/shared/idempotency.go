package shared

import (
	"context"
	"time"
)

// DefaultEventTTL is how long a delivered event id stays remembered
const DefaultEventTTL = 24 * time.Hour

// IdempotencyStore remembers delivered event ids so redelivered events are
// handled once
type IdempotencyStore interface {
	// MarkProcessed reports true when eventID was not seen within ttl and
	// records it
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Forget drops eventID so a failed delivery can be retried
	Forget(ctx context.Context, eventID string) error
	Close() error
}

// IdempotencyConfig controls event deduplication. A zero TTL means
// DefaultEventTTL.
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig enables deduplication with DefaultEventTTL
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: DefaultEventTTL, Enabled: true}
}
