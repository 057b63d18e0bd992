package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/threadlinehq/accounts-service/internal/core/domain/audit"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/httpserver/helpers"
)

// User handlers
func (s *Server) getOwnProfile(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	userObj, err := s.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	return c.JSON(http.StatusOK, userObj)
}

func (s *Server) createUser(c echo.Context) error {
	var req user.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	realmID, err := helpers.GetRealmIDFromContext(c)
	if err != nil {
		return err
	}

	createdUser, err := s.userService.CreateUser(c.Request().Context(), &req, realmID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if s.auditSvc != nil {
		actorID, _ := helpers.GetUserIDFromContext(c)
		_ = s.auditSvc.LogAction(c.Request().Context(), &audit.CreateAuditLogRequest{
			RealmID:    realmID,
			UserID:     &actorID,
			Action:     audit.ActionCreate,
			Resource:   audit.ResourceUser,
			ResourceID: &createdUser.ID,
			Details:    map[string]any{"email": createdUser.Email},
			IPAddress:  c.RealIP(),
			UserAgent:  c.Request().UserAgent(),
		})
	}

	return c.JSON(http.StatusCreated, createdUser)
}

func (s *Server) listRealmUsers(c echo.Context) error {
	realmID, err := helpers.GetRealmIDFromContext(c)
	if err != nil {
		return err
	}

	limit := 50
	offset := 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	users, total, err := s.userService.ListUsers(c.Request().Context(), realmID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"users":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) updateUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user ID")
	}

	var req user.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updatedUser, err := s.userService.UpdateUser(c.Request().Context(), userID, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if s.auditSvc != nil {
		realmID, _ := helpers.GetRealmIDFromContext(c)
		actorID, _ := helpers.GetUserIDFromContext(c)
		_ = s.auditSvc.LogAction(c.Request().Context(), &audit.CreateAuditLogRequest{
			RealmID:    realmID,
			UserID:     &actorID,
			Action:     audit.ActionUpdate,
			Resource:   audit.ResourceUser,
			ResourceID: &updatedUser.ID,
			IPAddress:  c.RealIP(),
			UserAgent:  c.Request().UserAgent(),
		})
	}

	return c.JSON(http.StatusOK, updatedUser)
}
