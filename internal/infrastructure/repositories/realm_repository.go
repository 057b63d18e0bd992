package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/db"
)

// RealmRepository implements the realm repository interface
type RealmRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewRealmRepository creates a new realm repository
func NewRealmRepository(database *db.Database, logger *logrus.Logger) ports.RealmRepository {
	return &RealmRepository{
		db:     database,
		logger: logger,
	}
}

// Create creates a new realm
func (r *RealmRepository) Create(ctx context.Context, rl *realm.Realm) error {
	query := `
		INSERT INTO realms (id, name, subdomain, status, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	settingsJSON, err := json.Marshal(rl.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	_, err = r.db.DB.ExecContext(ctx, query,
		rl.ID, rl.Name, rl.Subdomain, rl.Status, settingsJSON, rl.CreatedAt, rl.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"realm_id": rl.ID, "subdomain": rl.Subdomain}).WithError(err).Error("db: failed to create realm")
		}
		return fmt.Errorf("failed to create realm: %w", err)
	}

	return nil
}

// GetByID retrieves a realm by ID
func (r *RealmRepository) GetByID(ctx context.Context, id uuid.UUID) (*realm.Realm, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetBySubdomain retrieves a realm by its subdomain
func (r *RealmRepository) GetBySubdomain(ctx context.Context, subdomain string) (*realm.Realm, error) {
	return r.getOne(ctx, `WHERE subdomain = $1`, subdomain)
}

func (r *RealmRepository) getOne(ctx context.Context, where string, arg any) (*realm.Realm, error) {
	var rl realm.Realm
	var settingsJSON sql.NullString

	query := `
		SELECT id, name, subdomain, status, settings, created_at, updated_at
		FROM realms ` + where

	err := r.db.DB.QueryRowContext(ctx, query, arg).Scan(
		&rl.ID, &rl.Name, &rl.Subdomain, &rl.Status,
		&settingsJSON, &rl.CreatedAt, &rl.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("realm not found")
		}
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to get realm")
		}
		return nil, fmt.Errorf("failed to get realm: %w", err)
	}

	// Parse settings JSON if present
	if settingsJSON.Valid && settingsJSON.String != "" {
		if err := json.Unmarshal([]byte(settingsJSON.String), &rl.Settings); err != nil {
			return nil, fmt.Errorf("failed to parse settings: %w", err)
		}
	}

	return &rl, nil
}

// Update updates an existing realm
func (r *RealmRepository) Update(ctx context.Context, rl *realm.Realm) error {
	settingsJSON, err := json.Marshal(rl.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `
		UPDATE realms
		SET name = $2, subdomain = $3, status = $4, settings = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query,
		rl.ID, rl.Name, rl.Subdomain, rl.Status, settingsJSON, rl.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"realm_id": rl.ID}).WithError(err).Error("db: failed to update realm")
		}
		return fmt.Errorf("failed to update realm: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("realm not found")
	}

	return nil
}
