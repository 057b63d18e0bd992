// Package mocks provides lightweight function-field mocks for the core
// ports. Tests set only the functions they care about; unset functions fall
// back to benign defaults.
package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/threadlinehq/accounts-service/internal/core/domain/audit"
	"github.com/threadlinehq/accounts-service/internal/core/domain/auth"
	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
	"github.com/threadlinehq/accounts-service/internal/core/domain/emailchange"
	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
)

// UserRepositoryMock implements ports.UserRepository
type UserRepositoryMock struct {
	CreateFn     func(ctx context.Context, u *user.User) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmailFn func(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error)
	UpdateFn     func(ctx context.Context, u *user.User) error
	ListFn       func(ctx context.Context, realmID uuid.UUID, limit, offset int) ([]*user.User, error)
	CountFn      func(ctx context.Context, realmID uuid.UUID) (int, error)
}

func (m *UserRepositoryMock) Create(ctx context.Context, u *user.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}
func (m *UserRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *UserRepositoryMock) GetByEmail(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, realmID, email)
	}
	return nil, fmt.Errorf("not found")
}
func (m *UserRepositoryMock) Update(ctx context.Context, u *user.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, u)
	}
	return nil
}
func (m *UserRepositoryMock) List(ctx context.Context, realmID uuid.UUID, limit, offset int) ([]*user.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, realmID, limit, offset)
	}
	return nil, nil
}
func (m *UserRepositoryMock) Count(ctx context.Context, realmID uuid.UUID) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, realmID)
	}
	return 0, nil
}

// RealmRepositoryMock implements ports.RealmRepository
type RealmRepositoryMock struct {
	CreateFn         func(ctx context.Context, r *realm.Realm) error
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*realm.Realm, error)
	GetBySubdomainFn func(ctx context.Context, subdomain string) (*realm.Realm, error)
	UpdateFn         func(ctx context.Context, r *realm.Realm) error
}

func (m *RealmRepositoryMock) Create(ctx context.Context, r *realm.Realm) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}
func (m *RealmRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*realm.Realm, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *RealmRepositoryMock) GetBySubdomain(ctx context.Context, subdomain string) (*realm.Realm, error) {
	if m.GetBySubdomainFn != nil {
		return m.GetBySubdomainFn(ctx, subdomain)
	}
	return nil, fmt.Errorf("not found")
}
func (m *RealmRepositoryMock) Update(ctx context.Context, r *realm.Realm) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, r)
	}
	return nil
}

// ConfirmationRepositoryMock implements ports.ConfirmationRepository
type ConfirmationRepositoryMock struct {
	CreateFn              func(ctx context.Context, c *confirmation.Confirmation) error
	GetByKeyFn            func(ctx context.Context, key string) (*confirmation.Confirmation, error)
	MarkUsedFn            func(ctx context.Context, id uuid.UUID) error
	RevokeActiveForUserFn func(ctx context.Context, userID uuid.UUID, typ confirmation.Type, keepID uuid.UUID) (int, error)
}

func (m *ConfirmationRepositoryMock) Create(ctx context.Context, c *confirmation.Confirmation) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}
func (m *ConfirmationRepositoryMock) GetByKey(ctx context.Context, key string) (*confirmation.Confirmation, error) {
	if m.GetByKeyFn != nil {
		return m.GetByKeyFn(ctx, key)
	}
	return nil, confirmation.ErrKeyNotFound
}
func (m *ConfirmationRepositoryMock) MarkUsed(ctx context.Context, id uuid.UUID) error {
	if m.MarkUsedFn != nil {
		return m.MarkUsedFn(ctx, id)
	}
	return nil
}
func (m *ConfirmationRepositoryMock) RevokeActiveForUser(ctx context.Context, userID uuid.UUID, typ confirmation.Type, keepID uuid.UUID) (int, error) {
	if m.RevokeActiveForUserFn != nil {
		return m.RevokeActiveForUserFn(ctx, userID, typ, keepID)
	}
	return 0, nil
}

// ConfirmationServiceMock implements ports.ConfirmationService
type ConfirmationServiceMock struct {
	IssueFn  func(ctx context.Context, params ports.IssueParams) (*confirmation.Confirmation, error)
	VerifyFn func(ctx context.Context, key string) (*confirmation.Confirmation, error)
}

func (m *ConfirmationServiceMock) Issue(ctx context.Context, params ports.IssueParams) (*confirmation.Confirmation, error) {
	if m.IssueFn != nil {
		return m.IssueFn(ctx, params)
	}
	key, err := confirmation.GenerateKey()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &confirmation.Confirmation{
		ID:        uuid.New(),
		Key:       key,
		Type:      params.Type,
		ObjectID:  params.ObjectID,
		UserID:    params.UserID,
		RealmID:   params.RealmID,
		Status:    confirmation.StatusActive,
		ExpiresAt: now.Add(params.TTL),
		CreatedAt: now,
	}, nil
}
func (m *ConfirmationServiceMock) Verify(ctx context.Context, key string) (*confirmation.Confirmation, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, key)
	}
	return nil, confirmation.ErrKeyNotFound
}

// EmailChangeRepositoryMock implements ports.EmailChangeRepository
type EmailChangeRepositoryMock struct {
	CreateFn  func(ctx context.Context, req *emailchange.Request) error
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*emailchange.Request, error)
	ApplyFn   func(ctx context.Context, params ports.ApplyParams) error
}

func (m *EmailChangeRepositoryMock) Create(ctx context.Context, req *emailchange.Request) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, req)
	}
	return nil
}
func (m *EmailChangeRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*emailchange.Request, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *EmailChangeRepositoryMock) Apply(ctx context.Context, params ports.ApplyParams) error {
	if m.ApplyFn != nil {
		return m.ApplyFn(ctx, params)
	}
	return nil
}

// EmailChangeServiceMock implements ports.EmailChangeService
type EmailChangeServiceMock struct {
	RequestFn func(ctx context.Context, actor auth.Actor, req *emailchange.StartRequest) (*emailchange.Request, error)
	ConfirmFn func(ctx context.Context, key string) (*user.User, error)
}

func (m *EmailChangeServiceMock) Request(ctx context.Context, actor auth.Actor, req *emailchange.StartRequest) (*emailchange.Request, error) {
	if m.RequestFn != nil {
		return m.RequestFn(ctx, actor, req)
	}
	return nil, nil
}
func (m *EmailChangeServiceMock) Confirm(ctx context.Context, key string) (*user.User, error) {
	if m.ConfirmFn != nil {
		return m.ConfirmFn(ctx, key)
	}
	return nil, confirmation.ErrKeyNotFound
}

// EmailServiceMock implements ports.EmailService
type EmailServiceMock struct {
	SendEmailChangeConfirmationFn func(ctx context.Context, newEmail, key, userName, realmName string) error
}

func (m *EmailServiceMock) SendEmailChangeConfirmation(ctx context.Context, newEmail, key, userName, realmName string) error {
	if m.SendEmailChangeConfirmationFn != nil {
		return m.SendEmailChangeConfirmationFn(ctx, newEmail, key, userName, realmName)
	}
	return nil
}

// ScheduledEmailRepositoryMock implements ports.ScheduledEmailRepository
type ScheduledEmailRepositoryMock struct {
	EnqueueFn            func(ctx context.Context, email *ports.ScheduledEmail) error
	ListPendingForUserFn func(ctx context.Context, userID uuid.UUID) ([]*ports.ScheduledEmail, error)
}

func (m *ScheduledEmailRepositoryMock) Enqueue(ctx context.Context, email *ports.ScheduledEmail) error {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, email)
	}
	return nil
}
func (m *ScheduledEmailRepositoryMock) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]*ports.ScheduledEmail, error) {
	if m.ListPendingForUserFn != nil {
		return m.ListPendingForUserFn(ctx, userID)
	}
	return nil, nil
}

// TokenRepositoryMock implements ports.TokenRepository
type TokenRepositoryMock struct {
	StoreRefreshTokenFn  func(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshTokenFn    func(ctx context.Context, token string) (*ports.RefreshToken, error)
	DeleteRefreshTokenFn func(ctx context.Context, token string) error
	DeleteUserTokensFn   func(ctx context.Context, userID uuid.UUID) error
	IsTokenBlacklistedFn func(ctx context.Context, token string) (bool, error)
	BlacklistTokenFn     func(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
}

func (m *TokenRepositoryMock) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	if m.StoreRefreshTokenFn != nil {
		return m.StoreRefreshTokenFn(ctx, userID, token, expiresAt)
	}
	return nil
}
func (m *TokenRepositoryMock) GetRefreshToken(ctx context.Context, token string) (*ports.RefreshToken, error) {
	if m.GetRefreshTokenFn != nil {
		return m.GetRefreshTokenFn(ctx, token)
	}
	return nil, fmt.Errorf("not found")
}
func (m *TokenRepositoryMock) DeleteRefreshToken(ctx context.Context, token string) error {
	if m.DeleteRefreshTokenFn != nil {
		return m.DeleteRefreshTokenFn(ctx, token)
	}
	return nil
}
func (m *TokenRepositoryMock) DeleteUserTokens(ctx context.Context, userID uuid.UUID) error {
	if m.DeleteUserTokensFn != nil {
		return m.DeleteUserTokensFn(ctx, userID)
	}
	return nil
}
func (m *TokenRepositoryMock) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if m.IsTokenBlacklistedFn != nil {
		return m.IsTokenBlacklistedFn(ctx, token)
	}
	return false, nil
}
func (m *TokenRepositoryMock) BlacklistToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	if m.BlacklistTokenFn != nil {
		return m.BlacklistTokenFn(ctx, userID, token, expiresAt)
	}
	return nil
}

// AuthServiceMock implements ports.AuthService
type AuthServiceMock struct {
	LoginFn          func(ctx context.Context, req *auth.LoginRequest) (*auth.AuthTokens, error)
	RefreshTokenFn   func(ctx context.Context, refreshToken string) (*auth.AuthTokens, error)
	ValidateTokenFn  func(ctx context.Context, token string) (*auth.Claims, error)
	LogoutFn         func(ctx context.Context, userID uuid.UUID, token string) error
	GenerateTokensFn func(ctx context.Context, u *user.User) (*auth.AuthTokens, error)
}

func (m *AuthServiceMock) Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthTokens, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, req)
	}
	return nil, fmt.Errorf("not found")
}
func (m *AuthServiceMock) RefreshToken(ctx context.Context, refreshToken string) (*auth.AuthTokens, error) {
	if m.RefreshTokenFn != nil {
		return m.RefreshTokenFn(ctx, refreshToken)
	}
	return nil, fmt.Errorf("not found")
}
func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return nil, fmt.Errorf("invalid token")
}
func (m *AuthServiceMock) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx, userID, token)
	}
	return nil
}
func (m *AuthServiceMock) GenerateTokens(ctx context.Context, u *user.User) (*auth.AuthTokens, error) {
	if m.GenerateTokensFn != nil {
		return m.GenerateTokensFn(ctx, u)
	}
	return nil, nil
}

// UserServiceMock implements ports.UserService
type UserServiceMock struct {
	CreateUserFn     func(ctx context.Context, req *user.CreateUserRequest, realmID uuid.UUID) (*user.User, error)
	GetUserFn        func(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByEmailFn func(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error)
	UpdateUserFn     func(ctx context.Context, id uuid.UUID, req *user.UpdateUserRequest) (*user.User, error)
	ListUsersFn      func(ctx context.Context, realmID uuid.UUID, limit, offset int) ([]*user.User, int, error)
	VerifyPasswordFn func(ctx context.Context, userID uuid.UUID, password string) error
}

func (m *UserServiceMock) CreateUser(ctx context.Context, req *user.CreateUserRequest, realmID uuid.UUID) (*user.User, error) {
	if m.CreateUserFn != nil {
		return m.CreateUserFn(ctx, req, realmID)
	}
	return nil, nil
}
func (m *UserServiceMock) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, id)
	}
	return nil, nil
}
func (m *UserServiceMock) GetUserByEmail(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error) {
	if m.GetUserByEmailFn != nil {
		return m.GetUserByEmailFn(ctx, realmID, email)
	}
	return nil, fmt.Errorf("not found")
}
func (m *UserServiceMock) UpdateUser(ctx context.Context, id uuid.UUID, req *user.UpdateUserRequest) (*user.User, error) {
	if m.UpdateUserFn != nil {
		return m.UpdateUserFn(ctx, id, req)
	}
	return nil, nil
}
func (m *UserServiceMock) ListUsers(ctx context.Context, realmID uuid.UUID, limit, offset int) ([]*user.User, int, error) {
	if m.ListUsersFn != nil {
		return m.ListUsersFn(ctx, realmID, limit, offset)
	}
	return nil, 0, nil
}
func (m *UserServiceMock) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	if m.VerifyPasswordFn != nil {
		return m.VerifyPasswordFn(ctx, userID, password)
	}
	return nil
}

// RealmServiceMock implements ports.RealmService
type RealmServiceMock struct {
	CreateRealmFn         func(ctx context.Context, req *realm.CreateRealmRequest) (*realm.Realm, error)
	GetRealmFn            func(ctx context.Context, id uuid.UUID) (*realm.Realm, error)
	GetRealmBySubdomainFn func(ctx context.Context, subdomain string) (*realm.Realm, error)
	UpdateSettingsFn      func(ctx context.Context, id uuid.UUID, req *realm.UpdateRealmSettingsRequest) (*realm.Realm, error)
	SetStatusFn           func(ctx context.Context, id uuid.UUID, status realm.RealmStatus) (*realm.Realm, error)
}

func (m *RealmServiceMock) CreateRealm(ctx context.Context, req *realm.CreateRealmRequest) (*realm.Realm, error) {
	if m.CreateRealmFn != nil {
		return m.CreateRealmFn(ctx, req)
	}
	return nil, nil
}
func (m *RealmServiceMock) GetRealm(ctx context.Context, id uuid.UUID) (*realm.Realm, error) {
	if m.GetRealmFn != nil {
		return m.GetRealmFn(ctx, id)
	}
	return nil, fmt.Errorf("not found")
}
func (m *RealmServiceMock) GetRealmBySubdomain(ctx context.Context, subdomain string) (*realm.Realm, error) {
	if m.GetRealmBySubdomainFn != nil {
		return m.GetRealmBySubdomainFn(ctx, subdomain)
	}
	return nil, fmt.Errorf("not found")
}
func (m *RealmServiceMock) UpdateSettings(ctx context.Context, id uuid.UUID, req *realm.UpdateRealmSettingsRequest) (*realm.Realm, error) {
	if m.UpdateSettingsFn != nil {
		return m.UpdateSettingsFn(ctx, id, req)
	}
	return nil, nil
}
func (m *RealmServiceMock) SetStatus(ctx context.Context, id uuid.UUID, status realm.RealmStatus) (*realm.Realm, error) {
	if m.SetStatusFn != nil {
		return m.SetStatusFn(ctx, id, status)
	}
	return nil, nil
}

// AuditServiceMock implements ports.AuditService
type AuditServiceMock struct {
	LogActionFn    func(ctx context.Context, req *audit.CreateAuditLogRequest) error
	GetAuditLogsFn func(ctx context.Context, filter *audit.AuditLogFilter) ([]*audit.AuditLog, int, error)
}

func (m *AuditServiceMock) LogAction(ctx context.Context, req *audit.CreateAuditLogRequest) error {
	if m.LogActionFn != nil {
		return m.LogActionFn(ctx, req)
	}
	return nil
}
func (m *AuditServiceMock) GetAuditLogs(ctx context.Context, filter *audit.AuditLogFilter) ([]*audit.AuditLog, int, error) {
	if m.GetAuditLogsFn != nil {
		return m.GetAuditLogsFn(ctx, filter)
	}
	return nil, 0, nil
}

// RateLimiterServiceMock implements ports.RateLimiterService
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, realmID uuid.UUID) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, realmID uuid.UUID) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, realmID)
	}
	// Default to allowing requests in tests.
	return true, 100, 120, time.Now().Add(time.Minute), nil
}
