package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/ports"
)

const (
	scheduledEmailPrefix = "accounts_scheduled_emails"
)

// ScheduledEmailRedisRepository queues onboarding emails in Redis. Entries
// are scored by their scheduled delivery time so the sender can drain them
// in order.
type ScheduledEmailRedisRepository struct {
	client redis.Cmdable
	logger *logrus.Logger
}

// NewScheduledEmailRedisRepository creates a new Redis scheduled email repository
func NewScheduledEmailRedisRepository(client redis.Cmdable, logger *logrus.Logger) ports.ScheduledEmailRepository {
	return &ScheduledEmailRedisRepository{client: client, logger: logger}
}

// Enqueue stores a scheduled email in the delivery queue
func (r *ScheduledEmailRedisRepository) Enqueue(ctx context.Context, email *ports.ScheduledEmail) error {
	data, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to marshal scheduled email: %w", err)
	}

	queueKey := fmt.Sprintf("%s:queue", scheduledEmailPrefix)
	if err := r.client.ZAdd(ctx, queueKey, &redis.Z{
		Score:  float64(email.ScheduledAt.Unix()),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("failed to enqueue scheduled email: %w", err)
	}

	userKey := fmt.Sprintf("%s:user:%s", scheduledEmailPrefix, email.UserID)
	if err := r.client.SAdd(ctx, userKey, data).Err(); err != nil {
		return fmt.Errorf("failed to index scheduled email by user: %w", err)
	}

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{
			"user_id":  email.UserID,
			"template": email.Template,
		}).Debug("redis: scheduled email enqueued")
	}

	return nil
}

// ListPendingForUser returns the scheduled emails queued for a user
func (r *ScheduledEmailRedisRepository) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]*ports.ScheduledEmail, error) {
	userKey := fmt.Sprintf("%s:user:%s", scheduledEmailPrefix, userID)
	members, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled emails: %w", err)
	}

	emails := make([]*ports.ScheduledEmail, 0, len(members))
	for _, m := range members {
		var email ports.ScheduledEmail
		if err := json.Unmarshal([]byte(m), &email); err != nil {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Warn("redis: skipping malformed scheduled email entry")
			}
			continue
		}
		emails = append(emails, &email)
	}

	return emails, nil
}
