package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
)

// LoginRequest represents the login request. Logins are realm-scoped: the
// same address may exist in several realms.
type LoginRequest struct {
	Subdomain string `json:"subdomain" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// AuthTokens represents the authentication tokens
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims represents JWT claims
type Claims struct {
	UserID  uuid.UUID     `json:"user_id"`
	Email   string        `json:"email"`
	Role    user.UserRole `json:"role"`
	RealmID uuid.UUID     `json:"realm_id"`

	jwt.RegisteredClaims
}

// Actor is the capability passed into privileged operations: who is acting
// and whether they hold realm-administration privilege.
type Actor struct {
	UserID  uuid.UUID
	RealmID uuid.UUID
	Role    user.UserRole
}

// IsAdmin reports whether the actor may bypass realm email-change policy.
func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}
