package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
)

// ConfirmationRepository persists single-use confirmation tokens.
type ConfirmationRepository interface {
	Create(ctx context.Context, c *confirmation.Confirmation) error
	// GetByKey returns confirmation.ErrKeyNotFound when the key is absent.
	GetByKey(ctx context.Context, key string) (*confirmation.Confirmation, error)
	// MarkUsed transitions active -> used; returns
	// confirmation.ErrInvalidState when the row is no longer active.
	MarkUsed(ctx context.Context, id uuid.UUID) error
	// RevokeActiveForUser transitions all active confirmations of the given
	// type for the user to revoked, except the one identified by keepID.
	// Already-used confirmations are never touched. Returns the number of
	// confirmations revoked.
	RevokeActiveForUser(ctx context.Context, userID uuid.UUID, typ confirmation.Type, keepID uuid.UUID) (int, error)
}

// IssueParams describes the object a new confirmation is bound to.
type IssueParams struct {
	Type     confirmation.Type
	ObjectID uuid.UUID
	UserID   uuid.UUID
	RealmID  uuid.UUID
	TTL      time.Duration
}

// ConfirmationService mints and verifies confirmation links.
type ConfirmationService interface {
	// Issue mints a new active confirmation and revokes prior active
	// confirmations of the same type for the user (latest wins).
	Issue(ctx context.Context, params IssueParams) (*confirmation.Confirmation, error)
	// Verify validates a presented key without consuming it. Failure order:
	// malformed, not found, expired, already used/revoked.
	Verify(ctx context.Context, key string) (*confirmation.Confirmation, error)
}
