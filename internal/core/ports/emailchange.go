package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/threadlinehq/accounts-service/internal/core/domain/auth"
	"github.com/threadlinehq/accounts-service/internal/core/domain/emailchange"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
)

// EmailChangeRepository persists pending email-change requests and applies
// confirmed changes.
type EmailChangeRepository interface {
	Create(ctx context.Context, req *emailchange.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*emailchange.Request, error)
	// Apply consumes the confirmation and commits the new address in a
	// single transaction: the confirmation row is conditionally marked used,
	// the request marked used, and the user's email updated. A concurrent
	// confirm that lost the race observes confirmation.ErrInvalidState.
	Apply(ctx context.Context, params ApplyParams) error
}

// ApplyParams identifies the rows touched by a confirmed email change.
type ApplyParams struct {
	ConfirmationID uuid.UUID
	RequestID      uuid.UUID
	UserID         uuid.UUID
	NewEmail       string
}

// EmailChangeService drives the confirmation-link lifecycle for email
// changes: issuance with policy gating, and apply-time re-validation.
type EmailChangeService interface {
	// Request starts an email change for the given user. A request for the
	// current address is accepted as a no-op and returns (nil, nil).
	Request(ctx context.Context, actor auth.Actor, req *emailchange.StartRequest) (*emailchange.Request, error)
	// Confirm verifies the presented key and applies the change. Policy is
	// re-evaluated against current realm settings at apply time.
	Confirm(ctx context.Context, key string) (*user.User, error)
}
