package helpers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/threadlinehq/accounts-service/internal/core/domain/auth"
	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
)

func GetRealmFromContext(c echo.Context) (*realm.Realm, error) {
	r, ok := GetRealm(c)
	if !ok || r == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid realm context")
	}
	return r, nil
}

func GetActiveRealmFromContext(c echo.Context) (*realm.Realm, error) {
	r, err := GetRealmFromContext(c)
	if err != nil {
		return nil, err
	}
	if !r.CanAccess() {
		return nil, echo.NewHTTPError(http.StatusForbidden, fmt.Sprintf("realm is %s", r.Status))
	}
	return r, nil
}

func GetUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	id, ok := GetUserIDRaw(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user context")
	}
	return id, nil
}

func GetRealmIDFromContext(c echo.Context) (uuid.UUID, error) {
	id, ok := GetRealmIDRaw(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid realm context")
	}
	return id, nil
}

func GetUserRoleFromContext(c echo.Context) (user.UserRole, error) {
	r, ok := GetUserRoleRaw(c)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid role context")
	}
	return r, nil
}

func GetUserEmailFromContext(c echo.Context) (string, error) {
	s, ok := GetUserEmailRaw(c)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid user email context")
	}
	return s, nil
}

// GetActorFromContext assembles the acting user's capability from the values
// set by the JWT middleware.
func GetActorFromContext(c echo.Context) (auth.Actor, error) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		return auth.Actor{}, err
	}
	realmID, err := GetRealmIDFromContext(c)
	if err != nil {
		return auth.Actor{}, err
	}
	role, err := GetUserRoleFromContext(c)
	if err != nil {
		return auth.Actor{}, err
	}
	return auth.Actor{UserID: userID, RealmID: realmID, Role: role}, nil
}

func GetJWTTokenFromContext(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}
	return token, nil
}
