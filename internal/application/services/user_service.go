package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
	"github.com/threadlinehq/accounts-service/internal/utils"
)

type UserService struct {
	repo      ports.UserRepository
	tokenRepo ports.TokenRepository
	logger    *logrus.Logger
}

func NewUserService(repo ports.UserRepository, tokenRepo ports.TokenRepository, logger *logrus.Logger) ports.UserService {
	return &UserService{
		repo:      repo,
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest, realmID uuid.UUID) (*user.User, error) {
	// Accounts may be provisioned without an address (e.g. imported or demo
	// accounts); the address is added later through the confirmation flow.
	if req.Email != "" {
		if existingUser, err := s.repo.GetByEmail(ctx, realmID, req.Email); err == nil && existingUser != nil {
			return nil, fmt.Errorf("email '%s' is already taken", req.Email)
		}
	}

	if err := utils.ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &user.User{
		ID:           uuid.New(),
		RealmID:      realmID,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Role:         req.Role,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, realmID, email)
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req *user.UpdateUserRequest) (*user.User, error) {
	existingUser, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasActive := existingUser.IsActive

	if req.FullName != nil {
		existingUser.FullName = *req.FullName
	}
	if req.Role != nil {
		existingUser.Role = *req.Role
	}
	if req.IsActive != nil {
		existingUser.IsActive = *req.IsActive
	}
	existingUser.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, existingUser); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	// If user was deactivated, invalidate all their auth tokens
	if wasActive && req.IsActive != nil && !*req.IsActive && s.tokenRepo != nil {
		if err := s.tokenRepo.DeleteUserTokens(ctx, id); err != nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"user_id": existingUser.ID}).WithError(err).Warn("failed to delete user tokens after account deactivation")
			}
		}
	}

	return existingUser, nil
}

func (s *UserService) ListUsers(ctx context.Context, realmID uuid.UUID, limit, offset int) ([]*user.User, int, error) {
	users, err := s.repo.List(ctx, realmID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.repo.Count(ctx, realmID)
	if err != nil {
		return nil, 0, err
	}

	return users, count, nil
}

func (s *UserService) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	usr, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	return bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password))
}
