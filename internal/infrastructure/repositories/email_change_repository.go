package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
	"github.com/threadlinehq/accounts-service/internal/core/domain/emailchange"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/db"
)

// EmailChangeRepository implements the email change repository interface
type EmailChangeRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewEmailChangeRepository creates a new email change repository
func NewEmailChangeRepository(database *db.Database, logger *logrus.Logger) ports.EmailChangeRepository {
	return &EmailChangeRepository{
		db:     database,
		logger: logger,
	}
}

// Create stores a new pending email change request
func (r *EmailChangeRepository) Create(ctx context.Context, req *emailchange.Request) error {
	query := `
		INSERT INTO email_change_requests (id, user_id, realm_id, old_email, new_email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.DB.ExecContext(ctx, query,
		req.ID, req.UserID, req.RealmID, req.OldEmail, req.NewEmail, req.Status, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"request_id": req.ID, "user_id": req.UserID}).WithError(err).Error("db: failed to create email change request")
		}
		return fmt.Errorf("failed to create email change request: %w", err)
	}

	return nil
}

// GetByID retrieves an email change request by ID
func (r *EmailChangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*emailchange.Request, error) {
	var req emailchange.Request
	query := `
		SELECT id, user_id, realm_id, old_email, new_email, status, created_at, updated_at
		FROM email_change_requests
		WHERE id = $1`

	err := r.db.DB.GetContext(ctx, &req, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("email change request %s not found", id)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"request_id": id}).WithError(err).Error("db: failed to get email change request")
		}
		return nil, fmt.Errorf("failed to get email change request: %w", err)
	}

	return &req, nil
}

// Apply consumes the confirmation and commits the new address in one
// transaction. The conditional status predicate on the confirmation row
// serializes concurrent confirms of the same key: exactly one transaction
// flips active to used, every other caller gets ErrInvalidState and the
// user row is left untouched.
func (r *EmailChangeRepository) Apply(ctx context.Context, params ports.ApplyParams) error {
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE confirmations
			SET status = $2, used_at = NOW()
			WHERE id = $1 AND status = $3`,
			params.ConfirmationID, confirmation.StatusUsed, confirmation.StatusActive)
		if err != nil {
			return fmt.Errorf("failed to mark confirmation used: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return confirmation.ErrInvalidState
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE email_change_requests
			SET status = $2, updated_at = NOW()
			WHERE id = $1`,
			params.RequestID, confirmation.StatusUsed); err != nil {
			return fmt.Errorf("failed to update email change request: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET email = $2, email_verified = TRUE, updated_at = NOW()
			WHERE id = $1`,
			params.UserID, params.NewEmail); err != nil {
			return fmt.Errorf("failed to update user email: %w", err)
		}

		return nil
	})
	if err != nil {
		if err != confirmation.ErrInvalidState && r.logger != nil {
			r.logger.WithFields(logrus.Fields{
				"request_id": params.RequestID,
				"user_id":    params.UserID,
			}).WithError(err).Error("db: failed to apply email change")
		}
		return err
	}

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{
			"request_id": params.RequestID,
			"user_id":    params.UserID,
		}).Info("db: email change applied")
	}

	return nil
}
