package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
)

type RealmService struct {
	repo   ports.RealmRepository
	logger *logrus.Logger
}

func NewRealmService(repo ports.RealmRepository, logger *logrus.Logger) ports.RealmService {
	return &RealmService{repo: repo, logger: logger}
}

func (s *RealmService) CreateRealm(ctx context.Context, req *realm.CreateRealmRequest) (*realm.Realm, error) {
	if existing, err := s.repo.GetBySubdomain(ctx, req.Subdomain); err == nil && existing != nil {
		return nil, fmt.Errorf("subdomain '%s' is already taken", req.Subdomain)
	}

	newRealm := &realm.Realm{
		ID:        uuid.New(),
		Name:      req.Name,
		Subdomain: req.Subdomain,
		Status:    realm.RealmStatusActive,
		Settings:  req.Settings,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, newRealm); err != nil {
		return nil, fmt.Errorf("failed to create realm: %w", err)
	}

	return newRealm, nil
}

func (s *RealmService) GetRealm(ctx context.Context, id uuid.UUID) (*realm.Realm, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RealmService) GetRealmBySubdomain(ctx context.Context, subdomain string) (*realm.Realm, error) {
	return s.repo.GetBySubdomain(ctx, subdomain)
}

func (s *RealmService) UpdateSettings(ctx context.Context, id uuid.UUID, req *realm.UpdateRealmSettingsRequest) (*realm.Realm, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.EmailChangesDisabled != nil {
		existing.Settings.EmailChangesDisabled = *req.EmailChangesDisabled
	}
	if req.DisallowDisposableEmails != nil {
		existing.Settings.DisallowDisposableEmails = *req.DisallowDisposableEmails
	}
	if req.EmailsRestrictedToDomains != nil {
		existing.Settings.EmailsRestrictedToDomains = *req.EmailsRestrictedToDomains
	}
	if req.AllowedEmailDomains != nil {
		existing.Settings.AllowedEmailDomains = *req.AllowedEmailDomains
	}
	if req.RequestsPerMinute != nil {
		existing.Settings.RequestsPerMinute = *req.RequestsPerMinute
	}
	existing.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update realm settings: %w", err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"realm_id": id}).Info("realm settings updated")
	}

	return existing, nil
}

func (s *RealmService) SetStatus(ctx context.Context, id uuid.UUID, status realm.RealmStatus) (*realm.Realm, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !existing.Status.IsValidTransition(status) {
		return nil, fmt.Errorf("invalid realm status transition from %s to %s", existing.Status, status)
	}

	existing.Status = status
	existing.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update realm status: %w", err)
	}

	return existing, nil
}
