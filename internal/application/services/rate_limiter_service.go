package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/ports"
)

// RateLimiterService implements RateLimiter using a fixed-window counter.
type RateLimiterService struct {
	repo            ports.RateLimitRepository
	realmRepo       ports.RealmRepository
	defaultLimit    int
	burstMultiplier float64
	window          time.Duration
	keyPrefix       string
	logger          *logrus.Logger
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	DefaultRequestsPerMinute int
	BurstMultiplier          float64
	Window                   time.Duration
	KeyPrefix                string
}

func NewRateLimiterService(repo ports.RateLimitRepository, realmRepo ports.RealmRepository, cfg *RateLimiterConfig, logger *logrus.Logger) *RateLimiterService {
	// Apply defaults
	dl := 120
	bm := 2.0
	w := time.Minute
	kp := "ratelimit:realm"
	if cfg != nil {
		if cfg.DefaultRequestsPerMinute > 0 {
			dl = cfg.DefaultRequestsPerMinute
		}
		if cfg.BurstMultiplier > 0 {
			bm = cfg.BurstMultiplier
		}
		if cfg.Window > 0 {
			w = cfg.Window
		}
		if cfg.KeyPrefix != "" {
			kp = cfg.KeyPrefix
		}
	}
	return &RateLimiterService{repo: repo, realmRepo: realmRepo, defaultLimit: dl, burstMultiplier: bm, window: w, keyPrefix: kp, logger: logger}
}

func (s *RateLimiterService) Allow(ctx context.Context, realmID uuid.UUID) (bool, int, int, time.Time, error) {
	// Determine realm-specific limit
	limit := s.defaultLimit
	if s.realmRepo != nil {
		if r, err := s.realmRepo.GetByID(ctx, realmID); err == nil && r != nil {
			if r.Settings.RequestsPerMinute > 0 {
				limit = r.Settings.RequestsPerMinute
			}
		}
	}

	burstLimit := int(float64(limit) * s.burstMultiplier)

	count, windowStart, err := s.repo.IncrementWindow(ctx, realmID, s.window, s.keyPrefix, s.window*2)
	if err != nil {
		return false, 0, limit, windowStart.Add(s.window), err
	}

	remaining := burstLimit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= burstLimit, remaining, limit, windowStart.Add(s.window), nil
}
