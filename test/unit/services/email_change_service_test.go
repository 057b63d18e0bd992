package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	impl "github.com/threadlinehq/accounts-service/internal/application/services"
	"github.com/threadlinehq/accounts-service/internal/core/domain/audit"
	"github.com/threadlinehq/accounts-service/internal/core/domain/auth"
	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
	"github.com/threadlinehq/accounts-service/internal/core/domain/emailchange"
	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
	tmocks "github.com/threadlinehq/accounts-service/test/mocks"
)

const testPassword = "correct-horse-battery"

type emailChangeFixture struct {
	userRepo      *tmocks.UserRepositoryMock
	realmRepo     *tmocks.RealmRepositoryMock
	changeRepo    *tmocks.EmailChangeRepositoryMock
	confirmations *tmocks.ConfirmationServiceMock
	emails        *tmocks.EmailServiceMock
	scheduled     *tmocks.ScheduledEmailRepositoryMock
	audit         *tmocks.AuditServiceMock

	usr *user.User
	rlm *realm.Realm
}

// newEmailChangeFixture wires an active member in an active realm with no
// policy restrictions. Tests tweak the fixture before building the service.
func newEmailChangeFixture(t *testing.T) *emailChangeFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}

	realmID := uuid.New()
	f := &emailChangeFixture{
		usr: &user.User{
			ID:           uuid.New(),
			RealmID:      realmID,
			Email:        "old@example.com",
			PasswordHash: string(hash),
			FullName:     "Pat Example",
			Role:         user.RoleMember,
			IsActive:     true,
		},
		rlm: &realm.Realm{
			ID:     realmID,
			Name:   "Acme",
			Status: realm.RealmStatusActive,
		},
	}

	f.userRepo = &tmocks.UserRepositoryMock{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*user.User, error) {
			if id == f.usr.ID {
				return f.usr, nil
			}
			return nil, errors.New("not found")
		},
	}
	f.realmRepo = &tmocks.RealmRepositoryMock{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*realm.Realm, error) {
			return f.rlm, nil
		},
	}
	f.changeRepo = &tmocks.EmailChangeRepositoryMock{}
	f.confirmations = &tmocks.ConfirmationServiceMock{}
	f.emails = &tmocks.EmailServiceMock{}
	f.scheduled = &tmocks.ScheduledEmailRepositoryMock{}
	f.audit = &tmocks.AuditServiceMock{}
	return f
}

func (f *emailChangeFixture) service() ports.EmailChangeService {
	return impl.NewEmailChangeService(
		f.userRepo, f.realmRepo, f.changeRepo, f.confirmations,
		f.emails, f.scheduled, f.audit, 24*time.Hour, logrus.New(),
	)
}

func (f *emailChangeFixture) actor() auth.Actor {
	return auth.Actor{UserID: f.usr.ID, RealmID: f.usr.RealmID, Role: f.usr.Role}
}

func startReq(newEmail string) *emailchange.StartRequest {
	return &emailchange.StartRequest{NewEmail: newEmail, Password: testPassword}
}

func TestRequest_SameAddressIsNoOp(t *testing.T) {
	f := newEmailChangeFixture(t)
	created := false
	f.changeRepo.CreateFn = func(ctx context.Context, req *emailchange.Request) error {
		created = true
		return nil
	}

	change, err := f.service().Request(context.Background(), f.actor(), startReq("old@example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change != nil {
		t.Fatalf("expected nil change for the current address")
	}
	if created {
		t.Fatalf("no request should be recorded for the current address")
	}
}

func TestRequest_NormalizesBeforeComparing(t *testing.T) {
	f := newEmailChangeFixture(t)
	change, err := f.service().Request(context.Background(), f.actor(), startReq("Old@Example.COM"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change != nil {
		t.Fatalf("case-insensitive match with the current address must be a no-op")
	}
}

func TestRequest_InvalidAddress(t *testing.T) {
	f := newEmailChangeFixture(t)
	_, err := f.service().Request(context.Background(), f.actor(), startReq("not-an-address"))
	if !errors.Is(err, emailchange.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestRequest_InvalidPassword(t *testing.T) {
	f := newEmailChangeFixture(t)
	_, err := f.service().Request(context.Background(), f.actor(), &emailchange.StartRequest{
		NewEmail: "new@example.com",
		Password: "wrong-password",
	})
	if !errors.Is(err, emailchange.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRequest_DeactivatedRequester(t *testing.T) {
	f := newEmailChangeFixture(t)
	f.usr.IsActive = false

	_, err := f.service().Request(context.Background(), f.actor(), startReq("new@example.com"))
	if !errors.Is(err, emailchange.ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestRequest_RealmDeactivated(t *testing.T) {
	f := newEmailChangeFixture(t)
	f.rlm.Status = realm.RealmStatusDeactivated

	_, err := f.service().Request(context.Background(), f.actor(), startReq("new@example.com"))
	if !errors.Is(err, emailchange.ErrRealmDeactivated) {
		t.Fatalf("expected ErrRealmDeactivated, got %v", err)
	}
}

func TestRequest_ChangesDisabledForMember(t *testing.T) {
	f := newEmailChangeFixture(t)
	f.rlm.Settings.EmailChangesDisabled = true

	_, err := f.service().Request(context.Background(), f.actor(), startReq("new@example.com"))
	if !errors.Is(err, emailchange.ErrChangesDisabled) {
		t.Fatalf("expected ErrChangesDisabled, got %v", err)
	}
}

func TestRequest_AdminBypassesDisabledPolicy(t *testing.T) {
	f := newEmailChangeFixture(t)
	f.rlm.Settings.EmailChangesDisabled = true
	f.usr.Role = user.RoleAdmin

	change, err := f.service().Request(context.Background(), f.actor(), startReq("new@example.com"))
	if err != nil {
		t.Fatalf("admins may change their address with changes disabled: %v", err)
	}
	if change == nil || change.NewEmail != "new@example.com" {
		t.Fatalf("expected a recorded change, got %+v", change)
	}
}

func TestRequest_DisposableAddress(t *testing.T) {
	f := newEmailChangeFixture(t)
	f.rlm.Settings.DisallowDisposableEmails = true

	_, err := f.service().Request(context.Background(), f.actor(), startReq("ephemeral@mailinator.com"))
	if !errors.Is(err, emailchange.ErrDisposableAddress) {
		t.Fatalf("expected ErrDisposableAddress, got %v", err)
	}
}

func TestRequest_RestrictedDomain(t *testing.T) {
	f := newEmailChangeFixture(t)
	f.rlm.Settings.EmailsRestrictedToDomains = true
	f.rlm.Settings.AllowedEmailDomains = []string{"acme.com"}

	if _, err := f.service().Request(context.Background(), f.actor(), startReq("new@elsewhere.com")); !errors.Is(err, emailchange.ErrRestrictedDomain) {
		t.Fatalf("expected ErrRestrictedDomain, got %v", err)
	}
	if _, err := f.service().Request(context.Background(), f.actor(), startReq("new@acme.com")); err != nil {
		t.Fatalf("allowlisted domain must pass: %v", err)
	}
}

func TestRequest_AddressTakenByActiveAccount(t *testing.T) {
	f := newEmailChangeFixture(t)
	f.userRepo.GetByEmailFn = func(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error) {
		return &user.User{ID: uuid.New(), RealmID: realmID, Email: email, IsActive: true}, nil
	}

	_, err := f.service().Request(context.Background(), f.actor(), startReq("new@example.com"))
	if !errors.Is(err, emailchange.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRequest_DeactivatedHolderReportsDeactivated(t *testing.T) {
	// A deactivated account holding the address (mirror dummies included)
	// surfaces as a deactivated-account error, not an availability conflict.
	f := newEmailChangeFixture(t)
	f.userRepo.GetByEmailFn = func(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error) {
		return &user.User{
			ID:            uuid.New(),
			RealmID:       realmID,
			Email:         email,
			IsActive:      false,
			IsMirrorDummy: true,
		}, nil
	}

	_, err := f.service().Request(context.Background(), f.actor(), startReq("new@example.com"))
	if !errors.Is(err, emailchange.ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestRequest_SendsConfirmationToNewAddress(t *testing.T) {
	f := newEmailChangeFixture(t)

	var issuedKey string
	f.confirmations.IssueFn = func(ctx context.Context, params ports.IssueParams) (*confirmation.Confirmation, error) {
		if params.Type != confirmation.TypeEmailChange {
			t.Fatalf("unexpected confirmation type %s", params.Type)
		}
		if params.UserID != f.usr.ID {
			t.Fatalf("confirmation issued for wrong user")
		}
		issuedKey = "abcdefghijklmnopqrstuvwx"
		return &confirmation.Confirmation{
			ID:        uuid.New(),
			Key:       issuedKey,
			Type:      params.Type,
			ObjectID:  params.ObjectID,
			UserID:    params.UserID,
			RealmID:   params.RealmID,
			Status:    confirmation.StatusActive,
			ExpiresAt: time.Now().Add(params.TTL),
		}, nil
	}

	var sentTo, sentKey, sentRealm string
	f.emails.SendEmailChangeConfirmationFn = func(ctx context.Context, newEmail, key, userName, realmName string) error {
		sentTo, sentKey, sentRealm = newEmail, key, realmName
		return nil
	}

	change, err := f.service().Request(context.Background(), f.actor(), startReq("New@Example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.OldEmail != "old@example.com" || change.NewEmail != "new@example.com" {
		t.Fatalf("change records wrong transition: %+v", change)
	}
	if sentTo != "new@example.com" {
		t.Fatalf("confirmation must go to the new address, went to %q", sentTo)
	}
	if sentKey != issuedKey {
		t.Fatalf("mail carries the wrong key")
	}
	if sentRealm != "Acme" {
		t.Fatalf("mail carries the wrong realm name: %q", sentRealm)
	}
}

func confirmFixture(t *testing.T, newEmail string) (*emailChangeFixture, *emailchange.Request, string) {
	t.Helper()
	f := newEmailChangeFixture(t)

	change := &emailchange.Request{
		ID:       uuid.New(),
		UserID:   f.usr.ID,
		RealmID:  f.usr.RealmID,
		OldEmail: f.usr.Email,
		NewEmail: newEmail,
		Status:   confirmation.StatusActive,
	}
	key := "abcdefghijklmnopqrstuvwx"
	conf := &confirmation.Confirmation{
		ID:        uuid.New(),
		Key:       key,
		Type:      confirmation.TypeEmailChange,
		ObjectID:  change.ID,
		UserID:    f.usr.ID,
		RealmID:   f.usr.RealmID,
		Status:    confirmation.StatusActive,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	f.confirmations.VerifyFn = func(ctx context.Context, k string) (*confirmation.Confirmation, error) {
		if k == key {
			return conf, nil
		}
		return nil, confirmation.ErrKeyNotFound
	}
	f.changeRepo.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*emailchange.Request, error) {
		if id == change.ID {
			return change, nil
		}
		return nil, errors.New("not found")
	}
	return f, change, key
}

func TestConfirm_AppliesChange(t *testing.T) {
	f, change, key := confirmFixture(t, "new@example.com")

	var applied ports.ApplyParams
	f.changeRepo.ApplyFn = func(ctx context.Context, params ports.ApplyParams) error {
		applied = params
		return nil
	}

	updated, err := f.service().Confirm(context.Background(), key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied.RequestID != change.ID || applied.UserID != f.usr.ID {
		t.Fatalf("apply received wrong identifiers: %+v", applied)
	}
	if applied.NewEmail != "new@example.com" {
		t.Fatalf("apply received wrong address: %q", applied.NewEmail)
	}
	if updated.Email != "new@example.com" {
		t.Fatalf("returned user carries old address: %q", updated.Email)
	}
	if !updated.EmailVerified {
		t.Fatalf("confirmed address must be marked verified")
	}
}

func TestConfirm_VerifyFailurePropagates(t *testing.T) {
	f := newEmailChangeFixture(t)
	f.confirmations.VerifyFn = func(ctx context.Context, key string) (*confirmation.Confirmation, error) {
		return nil, confirmation.ErrExpired
	}

	_, err := f.service().Confirm(context.Background(), "abcdefghijklmnopqrstuvwx")
	if !errors.Is(err, confirmation.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestConfirm_PolicyReCheckedAtApplyTime(t *testing.T) {
	// The realm disabled email changes after the link was issued. The link
	// verifies, but the change must be rejected against current settings.
	f, _, key := confirmFixture(t, "new@example.com")
	f.rlm.Settings.EmailChangesDisabled = true

	applied := false
	f.changeRepo.ApplyFn = func(ctx context.Context, params ports.ApplyParams) error {
		applied = true
		return nil
	}

	_, err := f.service().Confirm(context.Background(), key)
	if !errors.Is(err, emailchange.ErrChangesDisabled) {
		t.Fatalf("expected ErrChangesDisabled, got %v", err)
	}
	if applied {
		t.Fatalf("change must not be applied when current policy rejects it")
	}
}

func TestConfirm_AddressTakenSinceIssuance(t *testing.T) {
	f, _, key := confirmFixture(t, "new@example.com")
	f.userRepo.GetByEmailFn = func(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error) {
		return &user.User{ID: uuid.New(), RealmID: realmID, Email: email, IsActive: true}, nil
	}

	_, err := f.service().Confirm(context.Background(), key)
	if !errors.Is(err, emailchange.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestConfirm_UserDeactivatedSinceIssuance(t *testing.T) {
	f, _, key := confirmFixture(t, "new@example.com")
	f.usr.IsActive = false

	_, err := f.service().Confirm(context.Background(), key)
	if !errors.Is(err, emailchange.ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestConfirm_RealmDeactivatedSinceIssuance(t *testing.T) {
	f, _, key := confirmFixture(t, "new@example.com")
	f.rlm.Status = realm.RealmStatusDeactivated

	_, err := f.service().Confirm(context.Background(), key)
	if !errors.Is(err, emailchange.ErrRealmDeactivated) {
		t.Fatalf("expected ErrRealmDeactivated, got %v", err)
	}
}

func TestConfirm_ConcurrentLoserGetsInvalidState(t *testing.T) {
	f, _, key := confirmFixture(t, "new@example.com")
	f.changeRepo.ApplyFn = func(ctx context.Context, params ports.ApplyParams) error {
		return confirmation.ErrInvalidState
	}

	_, err := f.service().Confirm(context.Background(), key)
	if !errors.Is(err, confirmation.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestConfirm_FirstAddressSchedulesOnboarding(t *testing.T) {
	f, _, key := confirmFixture(t, "new@example.com")
	f.usr.Email = ""

	var enqueued []*ports.ScheduledEmail
	f.scheduled.EnqueueFn = func(ctx context.Context, email *ports.ScheduledEmail) error {
		enqueued = append(enqueued, email)
		return nil
	}

	if _, err := f.service().Confirm(context.Background(), key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enqueued) != 3 {
		t.Fatalf("expected 3 onboarding emails, got %d", len(enqueued))
	}
	for i := 1; i < len(enqueued); i++ {
		if !enqueued[i].ScheduledAt.After(enqueued[i-1].ScheduledAt) {
			t.Fatalf("onboarding emails must be spread over successive days")
		}
	}
}

func TestConfirm_ExistingAddressSkipsOnboarding(t *testing.T) {
	f, _, key := confirmFixture(t, "new@example.com")

	enqueued := 0
	f.scheduled.EnqueueFn = func(ctx context.Context, email *ports.ScheduledEmail) error {
		enqueued++
		return nil
	}

	if _, err := f.service().Confirm(context.Background(), key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enqueued != 0 {
		t.Fatalf("onboarding is only scheduled for a first-time address")
	}
}

func TestConfirm_AuditsTransition(t *testing.T) {
	f, change, key := confirmFixture(t, "new@example.com")

	var logged *audit.CreateAuditLogRequest
	f.audit.LogActionFn = func(ctx context.Context, req *audit.CreateAuditLogRequest) error {
		logged = req
		return nil
	}

	if _, err := f.service().Confirm(context.Background(), key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logged == nil {
		t.Fatalf("confirmed change must be audited")
	}
	if logged.Action != audit.ActionEmailChange {
		t.Fatalf("unexpected audit action %s", logged.Action)
	}
	if logged.ResourceID == nil || *logged.ResourceID != change.ID {
		t.Fatalf("audit entry must reference the change request")
	}
	details, ok := logged.Details.(map[string]any)
	if !ok || details["old_email"] != "old@example.com" || details["new_email"] != "new@example.com" {
		t.Fatalf("audit details must record the transition: %+v", logged.Details)
	}
}
