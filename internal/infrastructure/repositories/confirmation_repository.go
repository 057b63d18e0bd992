package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/db"
)

// ConfirmationRepository implements the confirmation repository interface
type ConfirmationRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewConfirmationRepository creates a new confirmation repository
func NewConfirmationRepository(database *db.Database, logger *logrus.Logger) ports.ConfirmationRepository {
	return &ConfirmationRepository{
		db:     database,
		logger: logger,
	}
}

// Create stores a new confirmation
func (r *ConfirmationRepository) Create(ctx context.Context, c *confirmation.Confirmation) error {
	query := `
		INSERT INTO confirmations (id, key, type, object_id, user_id, realm_id, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.DB.ExecContext(ctx, query,
		c.ID, c.Key, c.Type, c.ObjectID, c.UserID, c.RealmID, c.Status, c.ExpiresAt, c.CreatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"confirmation_id": c.ID, "user_id": c.UserID}).WithError(err).Error("db: failed to create confirmation")
		}
		return fmt.Errorf("failed to create confirmation: %w", err)
	}

	return nil
}

// GetByKey retrieves a confirmation by its key
func (r *ConfirmationRepository) GetByKey(ctx context.Context, key string) (*confirmation.Confirmation, error) {
	var c confirmation.Confirmation
	query := `
		SELECT id, key, type, object_id, user_id, realm_id, status, expires_at, used_at, created_at
		FROM confirmations
		WHERE key = $1`

	err := r.db.DB.GetContext(ctx, &c, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, confirmation.ErrKeyNotFound
		}
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to get confirmation by key")
		}
		return nil, fmt.Errorf("failed to get confirmation by key: %w", err)
	}

	return &c, nil
}

// MarkUsed transitions an active confirmation to used. The status predicate
// makes the transition race-safe: two concurrent callers cannot both win.
func (r *ConfirmationRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE confirmations
		SET status = $2, used_at = NOW()
		WHERE id = $1 AND status = $3`

	result, err := r.db.DB.ExecContext(ctx, query, id, confirmation.StatusUsed, confirmation.StatusActive)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"confirmation_id": id}).WithError(err).Error("db: failed to mark confirmation used")
		}
		return fmt.Errorf("failed to mark confirmation used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return confirmation.ErrInvalidState
	}

	return nil
}

// RevokeActiveForUser revokes all active confirmations of the given type for
// a user except the one identified by keepID. Used confirmations keep their
// status so the audit trail of consumed links stays intact.
func (r *ConfirmationRepository) RevokeActiveForUser(ctx context.Context, userID uuid.UUID, typ confirmation.Type, keepID uuid.UUID) (int, error) {
	query := `
		UPDATE confirmations
		SET status = $1
		WHERE user_id = $2 AND type = $3 AND status = $4 AND id <> $5`

	result, err := r.db.DB.ExecContext(ctx, query,
		confirmation.StatusRevoked, userID, typ, confirmation.StatusActive, keepID)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": userID, "type": typ}).WithError(err).Error("db: failed to revoke confirmations")
		}
		return 0, fmt.Errorf("failed to revoke confirmations: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
