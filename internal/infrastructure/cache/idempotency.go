package cache

import (
	"context"
	"time"
)

// IdempotencyStore tracks processed webhook event IDs so redelivered
// notifications are dropped instead of applied twice.
type IdempotencyStore interface {
	// MarkProcessed records an event ID with a TTL. Returns true if the
	// event was newly marked, false if it was already recorded.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the event ID has been recorded and not expired.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Close releases resources held by the store.
	Close() error
}
