package httpserver_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/threadlinehq/accounts-service/internal/core/domain/auth"
	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/httpserver/helpers"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/httpserver/middleware"
	tmocks "github.com/threadlinehq/accounts-service/test/mocks"
)

func TestJWTMiddleware_MissingTokenReturns401(t *testing.T) {
	e := echo.New()
	m := middleware.NewJWTMiddleware(&tmocks.AuthServiceMock{}, logrus.New())
	handler := m.RequireJWT()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestJWTMiddleware_InvalidTokenReturns401(t *testing.T) {
	e := echo.New()
	authMock := &tmocks.AuthServiceMock{ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		return nil, fmt.Errorf("bad")
	}}
	m := middleware.NewJWTMiddleware(authMock, logrus.New())
	handler := m.RequireJWT()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestJWTMiddleware_RealmMismatchReturns403(t *testing.T) {
	e := echo.New()
	claims := &auth.Claims{UserID: uuid.New(), Role: user.RoleMember, RealmID: uuid.New()}
	authMock := &tmocks.AuthServiceMock{ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		return claims, nil
	}}
	m := middleware.NewJWTMiddleware(authMock, logrus.New())
	handler := m.RequireJWT()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	// The host resolved to a different realm than the token claims.
	helpers.SetRealmID(c, uuid.New())

	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, htErr.Code)
}

func TestJWTMiddleware_SetsRealmFromClaims(t *testing.T) {
	e := echo.New()
	claims := &auth.Claims{UserID: uuid.New(), Email: "a@b.com", Role: user.RoleMember, RealmID: uuid.New()}
	authMock := &tmocks.AuthServiceMock{ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		return claims, nil
	}}
	m := middleware.NewJWTMiddleware(authMock, logrus.New())
	handler := m.RequireJWT()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))

	realmID, ok := helpers.GetRealmIDRaw(c)
	require.True(t, ok)
	require.Equal(t, claims.RealmID, realmID)
	userID, ok := helpers.GetUserIDRaw(c)
	require.True(t, ok)
	require.Equal(t, claims.UserID, userID)
}

func TestRealmMiddleware_ResolvesSubdomain(t *testing.T) {
	e := echo.New()
	rlm := &realm.Realm{ID: uuid.New(), Subdomain: "acme", Status: realm.RealmStatusActive}
	realmMock := &tmocks.RealmServiceMock{GetRealmBySubdomainFn: func(ctx context.Context, subdomain string) (*realm.Realm, error) {
		if subdomain == "acme" {
			return rlm, nil
		}
		return nil, fmt.Errorf("not found")
	}}
	m := middleware.NewRealmMiddleware(realmMock, "threadline.test", logrus.New())
	handler := m.ResolveRealm()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "acme.threadline.test:8080"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))

	realmID, ok := helpers.GetRealmIDRaw(c)
	require.True(t, ok)
	require.Equal(t, rlm.ID, realmID)
}

func TestRealmMiddleware_IgnoresForeignAndNestedHosts(t *testing.T) {
	e := echo.New()
	realmMock := &tmocks.RealmServiceMock{GetRealmBySubdomainFn: func(ctx context.Context, subdomain string) (*realm.Realm, error) {
		t.Fatalf("no lookup expected for host without a realm subdomain")
		return nil, nil
	}}
	m := middleware.NewRealmMiddleware(realmMock, "threadline.test", logrus.New())
	handler := m.ResolveRealm()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, host := range []string{
		"threadline.test",
		"127.0.0.1:8080",
		"evil.example.com",
		"a.b.threadline.test",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoErrorf(t, handler(c), "host %s", host)
		_, ok := helpers.GetRealmIDRaw(c)
		require.Falsef(t, ok, "host %s must not resolve a realm", host)
	}
}

func TestRoleMiddleware_RequireAdmin(t *testing.T) {
	e := echo.New()
	m := middleware.NewRoleMiddleware()
	handler := m.RequireAdmin()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	cases := []struct {
		role    user.UserRole
		allowed bool
	}{
		{user.RoleOwner, true},
		{user.RoleAdmin, true},
		{user.RoleMember, false},
		{user.RoleGuest, false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		helpers.SetUserRole(c, tc.role)

		err := handler(c)
		if tc.allowed {
			require.NoErrorf(t, err, "role %s", tc.role)
			continue
		}
		require.Errorf(t, err, "role %s", tc.role)
		htErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		require.Equal(t, http.StatusForbidden, htErr.Code)
	}
}
