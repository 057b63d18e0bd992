package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RateLimiterService decides whether a realm-scoped request may proceed.
type RateLimiterService interface {
	// Allow returns (allowed, remaining, limit, resetAt, err).
	Allow(ctx context.Context, realmID uuid.UUID) (bool, int, int, time.Time, error)
}

// RateLimitRepository stores fixed-window counters.
type RateLimitRepository interface {
	IncrementWindow(ctx context.Context, realmID uuid.UUID, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error)
}
