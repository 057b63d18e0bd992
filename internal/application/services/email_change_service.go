package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/threadlinehq/accounts-service/internal/core/domain/audit"
	"github.com/threadlinehq/accounts-service/internal/core/domain/auth"
	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
	"github.com/threadlinehq/accounts-service/internal/core/domain/emailchange"
	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
)

// onboardingTemplates are scheduled, in order, after a first-time address
// confirmation on an account provisioned without an email.
var onboardingTemplates = []string{
	"onboarding_threadline_topics",
	"onboarding_threadline_guide",
	"onboarding_team_to_threadline",
}

type EmailChangeService struct {
	userRepo        ports.UserRepository
	realmRepo       ports.RealmRepository
	changeRepo      ports.EmailChangeRepository
	confirmations   ports.ConfirmationService
	emailService    ports.EmailService
	scheduledEmails ports.ScheduledEmailRepository
	auditService    ports.AuditService
	ttl             time.Duration
	logger          *logrus.Logger
}

func NewEmailChangeService(
	userRepo ports.UserRepository,
	realmRepo ports.RealmRepository,
	changeRepo ports.EmailChangeRepository,
	confirmations ports.ConfirmationService,
	emailService ports.EmailService,
	scheduledEmails ports.ScheduledEmailRepository,
	auditService ports.AuditService,
	ttl time.Duration,
	logger *logrus.Logger,
) ports.EmailChangeService {
	return &EmailChangeService{
		userRepo:        userRepo,
		realmRepo:       realmRepo,
		changeRepo:      changeRepo,
		confirmations:   confirmations,
		emailService:    emailService,
		scheduledEmails: scheduledEmails,
		auditService:    auditService,
		ttl:             ttl,
		logger:          logger,
	}
}

// Request starts an email change for the acting user: it validates the new
// address against realm policy, records the pending transition, mints a
// confirmation link, and mails it to the new address. Requesting the current
// address is accepted as a no-op.
func (s *EmailChangeService) Request(ctx context.Context, actor auth.Actor, req *emailchange.StartRequest) (*emailchange.Request, error) {
	newEmail, err := emailchange.ParseAddress(req.NewEmail)
	if err != nil {
		return nil, err
	}

	usr, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !usr.IsActive {
		return nil, emailchange.ErrAccountDeactivated
	}

	if usr.Email == newEmail {
		// Changing back to the current address is not an error.
		return nil, nil
	}

	rlm, err := s.realmRepo.GetByID(ctx, usr.RealmID)
	if err != nil {
		return nil, fmt.Errorf("failed to get realm: %w", err)
	}

	if err := s.checkPolicy(ctx, rlm, usr, newEmail); err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(req.Password)); err != nil {
		return nil, emailchange.ErrInvalidPassword
	}

	now := time.Now()
	change := &emailchange.Request{
		ID:        uuid.New(),
		UserID:    usr.ID,
		RealmID:   usr.RealmID,
		OldEmail:  usr.Email,
		NewEmail:  newEmail,
		Status:    confirmation.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.changeRepo.Create(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to create email change request: %w", err)
	}

	conf, err := s.confirmations.Issue(ctx, ports.IssueParams{
		Type:     confirmation.TypeEmailChange,
		ObjectID: change.ID,
		UserID:   usr.ID,
		RealmID:  usr.RealmID,
		TTL:      s.ttl,
	})
	if err != nil {
		return nil, err
	}

	if err := s.emailService.SendEmailChangeConfirmation(ctx, newEmail, conf.Key, usr.FullName, rlm.Name); err != nil {
		return nil, fmt.Errorf("failed to send confirmation email: %w", err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":  usr.ID,
			"realm_id": usr.RealmID,
		}).Info("email change requested")
	}

	return change, nil
}

// Confirm verifies the presented key and applies the pending change. All
// policy preconditions are re-checked against current state: the realm may
// have changed its settings, and the user or a conflicting account may have
// been deactivated since the link was issued.
func (s *EmailChangeService) Confirm(ctx context.Context, key string) (*user.User, error) {
	conf, err := s.confirmations.Verify(ctx, key)
	if err != nil {
		return nil, err
	}

	change, err := s.changeRepo.GetByID(ctx, conf.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get email change request: %w", err)
	}

	usr, err := s.userRepo.GetByID(ctx, change.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !usr.IsActive {
		return nil, emailchange.ErrAccountDeactivated
	}

	rlm, err := s.realmRepo.GetByID(ctx, change.RealmID)
	if err != nil {
		return nil, fmt.Errorf("failed to get realm: %w", err)
	}

	if err := s.checkPolicy(ctx, rlm, usr, change.NewEmail); err != nil {
		return nil, err
	}

	firstAddress := usr.Email == ""

	if err := s.changeRepo.Apply(ctx, ports.ApplyParams{
		ConfirmationID: conf.ID,
		RequestID:      change.ID,
		UserID:         usr.ID,
		NewEmail:       change.NewEmail,
	}); err != nil {
		return nil, err
	}

	oldEmail := usr.Email
	usr.Email = change.NewEmail
	usr.EmailVerified = true
	usr.UpdatedAt = time.Now()

	if s.auditService != nil {
		if err := s.auditService.LogAction(ctx, &audit.CreateAuditLogRequest{
			RealmID:    usr.RealmID,
			UserID:     &usr.ID,
			Action:     audit.ActionEmailChange,
			Resource:   audit.ResourceEmailChange,
			ResourceID: &change.ID,
			Details:    map[string]any{"old_email": oldEmail, "new_email": change.NewEmail},
		}); err != nil && s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": usr.ID}).WithError(err).Warn("failed to audit email change")
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":  usr.ID,
			"realm_id": usr.RealmID,
		}).Info("email change confirmed")
	}

	if firstAddress && s.scheduledEmails != nil {
		s.scheduleOnboarding(ctx, usr)
	}

	return usr, nil
}

// checkPolicy enforces realm email policy and ownership conflicts for a
// candidate address. The same checks run at issuance and at apply time.
func (s *EmailChangeService) checkPolicy(ctx context.Context, rlm *realm.Realm, usr *user.User, newEmail string) error {
	if !rlm.CanAccess() {
		return emailchange.ErrRealmDeactivated
	}

	if rlm.Settings.EmailChangesDisabled && !usr.Role.IsAdmin() {
		return emailchange.ErrChangesDisabled
	}

	domain := emailchange.Domain(newEmail)
	if rlm.Settings.DisallowDisposableEmails && emailchange.IsDisposableDomain(domain) {
		return emailchange.ErrDisposableAddress
	}
	if !rlm.Settings.DomainAllowed(domain) {
		return emailchange.ErrRestrictedDomain
	}

	// An account already holding the address is checked first, regardless of
	// its active or mirror-dummy status: a deactivated holder (mirror dummies
	// included) reports a deactivated account, not an availability conflict.
	existing, err := s.userRepo.GetByEmail(ctx, rlm.ID, newEmail)
	if err == nil && existing != nil && existing.ID != usr.ID {
		if !existing.IsActive {
			return emailchange.ErrAccountDeactivated
		}
		return emailchange.ErrEmailTaken
	}

	return nil
}

func (s *EmailChangeService) scheduleOnboarding(ctx context.Context, usr *user.User) {
	now := time.Now()
	for i, tmpl := range onboardingTemplates {
		email := &ports.ScheduledEmail{
			ID:          uuid.New(),
			UserID:      usr.ID,
			RealmID:     usr.RealmID,
			Template:    tmpl,
			ScheduledAt: now.Add(time.Duration(i+1) * 24 * time.Hour),
		}
		if err := s.scheduledEmails.Enqueue(ctx, email); err != nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{
					"user_id":  usr.ID,
					"template": tmpl,
				}).WithError(err).Warn("failed to enqueue onboarding email")
			}
		}
	}
}
