package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EmailService defines the interface for outbound email delivery
type EmailService interface {
	SendEmailChangeConfirmation(ctx context.Context, newEmail, key, userName, realmName string) error
}

// ScheduledEmail is a deferred onboarding message handed to the external
// notification sender.
type ScheduledEmail struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	RealmID     uuid.UUID `json:"realm_id"`
	Template    string    `json:"template"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// ScheduledEmailRepository queues onboarding emails for later delivery.
// Draining the queue is the sender's concern, not this service's.
type ScheduledEmailRepository interface {
	Enqueue(ctx context.Context, email *ScheduledEmail) error
	ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]*ScheduledEmail, error)
}
