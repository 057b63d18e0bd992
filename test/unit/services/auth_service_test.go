package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	config "github.com/threadlinehq/accounts-service/configs"
	impl "github.com/threadlinehq/accounts-service/internal/application/services"
	"github.com/threadlinehq/accounts-service/internal/core/domain/auth"
	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
	"github.com/threadlinehq/accounts-service/internal/core/ports"
	tmocks "github.com/threadlinehq/accounts-service/test/mocks"
)

func jwtTestConfig() *config.JWTConfig {
	return &config.JWTConfig{Secret: "s", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour}
}

func authFixture(t *testing.T) (*tmocks.UserRepositoryMock, *tmocks.RealmRepositoryMock, *user.User) {
	t.Helper()
	passHash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	realmID := uuid.New()
	u := &user.User{
		ID:           uuid.New(),
		RealmID:      realmID,
		Email:        "a@b.com",
		PasswordHash: string(passHash),
		Role:         user.RoleMember,
		IsActive:     true,
	}
	ur := &tmocks.UserRepositoryMock{
		GetByEmailFn: func(ctx context.Context, rid uuid.UUID, email string) (*user.User, error) {
			if rid == realmID && email == u.Email {
				return u, nil
			}
			return nil, context.Canceled
		},
	}
	rr := &tmocks.RealmRepositoryMock{
		GetBySubdomainFn: func(ctx context.Context, subdomain string) (*realm.Realm, error) {
			if subdomain == "acme" {
				return &realm.Realm{ID: realmID, Subdomain: subdomain, Status: realm.RealmStatusActive}, nil
			}
			return nil, context.Canceled
		},
	}
	return ur, rr, u
}

func TestLogin_Success(t *testing.T) {
	ur, rr, _ := authFixture(t)
	svc := impl.NewAuthService(ur, rr, &tmocks.TokenRepositoryMock{}, jwtTestConfig(), nil)

	tokens, err := svc.Login(context.Background(), &auth.LoginRequest{Subdomain: "acme", Email: "a@b.com", Password: "correct"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}
}

func TestLogin_InvalidPassword(t *testing.T) {
	ur, rr, _ := authFixture(t)
	svc := impl.NewAuthService(ur, rr, &tmocks.TokenRepositoryMock{}, jwtTestConfig(), nil)

	if _, err := svc.Login(context.Background(), &auth.LoginRequest{Subdomain: "acme", Email: "a@b.com", Password: "wrong"}); err == nil {
		t.Fatalf("expected error for invalid credentials")
	}
}

func TestLogin_UnknownRealm(t *testing.T) {
	ur, rr, _ := authFixture(t)
	svc := impl.NewAuthService(ur, rr, &tmocks.TokenRepositoryMock{}, jwtTestConfig(), nil)

	if _, err := svc.Login(context.Background(), &auth.LoginRequest{Subdomain: "ghost", Email: "a@b.com", Password: "correct"}); err == nil {
		t.Fatalf("expected error for unknown realm")
	}
}

func TestLogin_DeactivatedRealm(t *testing.T) {
	ur, _, u := authFixture(t)
	rr := &tmocks.RealmRepositoryMock{
		GetBySubdomainFn: func(ctx context.Context, subdomain string) (*realm.Realm, error) {
			return &realm.Realm{ID: u.RealmID, Subdomain: subdomain, Status: realm.RealmStatusDeactivated}, nil
		},
	}
	svc := impl.NewAuthService(ur, rr, &tmocks.TokenRepositoryMock{}, jwtTestConfig(), nil)

	if _, err := svc.Login(context.Background(), &auth.LoginRequest{Subdomain: "acme", Email: "a@b.com", Password: "correct"}); err == nil {
		t.Fatalf("expected error for deactivated realm")
	}
}

func TestGenerateAndValidateToken_Roundtrip(t *testing.T) {
	_, _, u := authFixture(t)
	svc := impl.NewAuthService(nil, nil, &tmocks.TokenRepositoryMock{}, jwtTestConfig(), nil)

	tokens, err := svc.GenerateTokens(context.Background(), u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := svc.ValidateToken(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != u.ID || claims.RealmID != u.RealmID {
		t.Fatalf("claims do not round-trip: %+v", claims)
	}
}

func TestValidateToken_Blacklisted(t *testing.T) {
	_, _, u := authFixture(t)
	tr := &tmocks.TokenRepositoryMock{
		IsTokenBlacklistedFn: func(ctx context.Context, token string) (bool, error) { return true, nil },
	}
	svc := impl.NewAuthService(nil, nil, tr, jwtTestConfig(), nil)

	tokens, err := svc.GenerateTokens(context.Background(), u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ValidateToken(context.Background(), tokens.AccessToken); err == nil {
		t.Fatalf("expected blacklisted token to be rejected")
	}
}

func TestRefreshToken_RotatesStoredToken(t *testing.T) {
	_, _, u := authFixture(t)
	stored := map[string]*uuid.UUID{"refresh-x": &u.ID}
	deleted := ""
	ur := &tmocks.UserRepositoryMock{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*user.User, error) { return u, nil },
	}
	tr := &tmocks.TokenRepositoryMock{}
	tr.GetRefreshTokenFn = func(ctx context.Context, token string) (*ports.RefreshToken, error) {
		if uid, ok := stored[token]; ok {
			return &ports.RefreshToken{UserID: *uid, ExpiresAt: time.Now().Add(time.Hour)}, nil
		}
		return nil, context.Canceled
	}
	tr.DeleteRefreshTokenFn = func(ctx context.Context, token string) error {
		deleted = token
		return nil
	}
	svc := impl.NewAuthService(ur, nil, tr, jwtTestConfig(), nil)

	tokens, err := svc.RefreshToken(context.Background(), "refresh-x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.AccessToken == "" {
		t.Fatalf("expected fresh access token")
	}
	if deleted != "refresh-x" {
		t.Fatalf("used refresh token must be deleted")
	}
}
