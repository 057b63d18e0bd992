package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/db"
)

// UserRepository implements the user repository interface
type UserRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.Database, logger *logrus.Logger) ports.UserRepository {
	return &UserRepository{
		db:     database,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, realm_id, email, password_hash, full_name, role, is_active, is_mirror_dummy, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.DB.ExecContext(ctx, query,
		u.ID, u.RealmID, u.Email, u.PasswordHash, u.FullName, u.Role,
		u.IsActive, u.IsMirrorDummy, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": u.ID, "realm_id": u.RealmID}).WithError(err).Error("db: failed to create user")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"user_id": u.ID, "realm_id": u.RealmID}).Info("db: user created")
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	query := `
		SELECT id, realm_id, email, password_hash, full_name, role,
			   is_active, is_mirror_dummy, email_verified, last_login_at, created_at, updated_at
		FROM users
		WHERE id = $1`

	err := r.db.DB.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with ID %s not found", id)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": id}).WithError(err).Error("db: failed to get user by ID")
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves a user holding the address within a realm. Lookup is
// case-insensitive and deliberately ignores active and mirror-dummy status:
// callers decide how a deactivated holder affects address availability.
func (r *UserRepository) GetByEmail(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error) {
	var u user.User
	query := `
		SELECT id, realm_id, email, password_hash, full_name, role,
			   is_active, is_mirror_dummy, email_verified, last_login_at, created_at, updated_at
		FROM users
		WHERE realm_id = $1 AND LOWER(email) = LOWER($2)`

	err := r.db.DB.GetContext(ctx, &u, query, realmID, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with email %s not found", email)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"realm_id": realmID}).WithError(err).Error("db: failed to get user by email")
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

// Update updates an existing user
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET email = $2, password_hash = $3, full_name = $4, role = $5,
			is_active = $6, is_mirror_dummy = $7, email_verified = $8, last_login_at = $9, updated_at = $10
		WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Role,
		u.IsActive, u.IsMirrorDummy, u.EmailVerified, u.LastLoginAt, u.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": u.ID}).WithError(err).Error("db: failed to update user")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found", u.ID)
	}

	return nil
}

// List retrieves users for a realm with pagination
func (r *UserRepository) List(ctx context.Context, realmID uuid.UUID, limit, offset int) ([]*user.User, error) {
	var users []*user.User
	query := `
		SELECT id, realm_id, email, password_hash, full_name, role,
		       is_active, is_mirror_dummy, email_verified, last_login_at, created_at, updated_at
		FROM users
		WHERE realm_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := r.db.DB.SelectContext(ctx, &users, query, realmID, limit, offset)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"realm_id": realmID}).WithError(err).Error("db: failed to list users")
		}
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Count returns the total number of users for a realm
func (r *UserRepository) Count(ctx context.Context, realmID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE realm_id = $1`

	err := r.db.DB.GetContext(ctx, &count, query, realmID)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"realm_id": realmID}).WithError(err).Error("db: failed to count users")
		}
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
