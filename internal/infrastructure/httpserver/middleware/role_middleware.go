package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/threadlinehq/accounts-service/internal/infrastructure/httpserver/helpers"
)

// RoleMiddleware gates routes on the acting user's realm role.
type RoleMiddleware struct{}

func NewRoleMiddleware() *RoleMiddleware {
	return &RoleMiddleware{}
}

// RequireAdmin allows only realm owners and admins through.
func (m *RoleMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, err := helpers.GetUserRoleFromContext(c)
			if err != nil {
				return err
			}
			if !role.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "realm administration privilege required")
			}
			return next(c)
		}
	}
}
