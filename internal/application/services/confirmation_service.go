package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
)

type ConfirmationService struct {
	repo   ports.ConfirmationRepository
	logger *logrus.Logger
}

func NewConfirmationService(repo ports.ConfirmationRepository, logger *logrus.Logger) ports.ConfirmationService {
	return &ConfirmationService{repo: repo, logger: logger}
}

// Issue mints a fresh confirmation for the given object and revokes any prior
// active confirmations of the same type for the user. The newest link always
// wins; confirmations that were already consumed keep their used status.
func (s *ConfirmationService) Issue(ctx context.Context, params ports.IssueParams) (*confirmation.Confirmation, error) {
	key, err := confirmation.GenerateKey()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	conf := &confirmation.Confirmation{
		ID:        uuid.New(),
		Key:       key,
		Type:      params.Type,
		ObjectID:  params.ObjectID,
		UserID:    params.UserID,
		RealmID:   params.RealmID,
		Status:    confirmation.StatusActive,
		ExpiresAt: now.Add(params.TTL),
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, conf); err != nil {
		return nil, fmt.Errorf("failed to store confirmation: %w", err)
	}

	revoked, err := s.repo.RevokeActiveForUser(ctx, params.UserID, params.Type, conf.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke superseded confirmations: %w", err)
	}
	if revoked > 0 && s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": params.UserID,
			"type":    params.Type,
			"revoked": revoked,
		}).Info("revoked superseded confirmations")
	}

	return conf, nil
}

// Verify validates a presented key without consuming it. The checks run in a
// fixed order so that an expired-but-unused link reports expiry rather than
// reuse, and a revoked link is indistinguishable from a used one.
func (s *ConfirmationService) Verify(ctx context.Context, key string) (*confirmation.Confirmation, error) {
	if err := confirmation.ValidateKeyFormat(key); err != nil {
		return nil, err
	}

	conf, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if conf.IsExpired() {
		return nil, confirmation.ErrExpired
	}

	if !conf.IsActive() {
		return nil, confirmation.ErrAlreadyUsed
	}

	return conf, nil
}
