package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/threadlinehq/accounts-service/internal/core/domain/audit"
	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/httpserver/helpers"
)

// Realm handlers
func (s *Server) getOwnRealm(c echo.Context) error {
	realmID, err := helpers.GetRealmIDFromContext(c)
	if err != nil {
		return err
	}

	rlm, err := s.realmService.GetRealm(c.Request().Context(), realmID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "realm not found")
	}

	return c.JSON(http.StatusOK, rlm)
}

// updateRealmSettings applies a partial policy update. New policy takes
// effect immediately, including for confirmation links already in flight.
func (s *Server) updateRealmSettings(c echo.Context) error {
	realmID, err := helpers.GetRealmIDFromContext(c)
	if err != nil {
		return err
	}

	var req realm.UpdateRealmSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rlm, err := s.realmService.UpdateSettings(c.Request().Context(), realmID, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if s.auditSvc != nil {
		actorID, _ := helpers.GetUserIDFromContext(c)
		_ = s.auditSvc.LogAction(c.Request().Context(), &audit.CreateAuditLogRequest{
			RealmID:    realmID,
			UserID:     &actorID,
			Action:     audit.ActionUpdate,
			Resource:   audit.ResourceRealm,
			ResourceID: &realmID,
			Details:    map[string]any{"settings": rlm.Settings},
			IPAddress:  c.RealIP(),
			UserAgent:  c.Request().UserAgent(),
		})
	}

	return c.JSON(http.StatusOK, rlm)
}

func (s *Server) setRealmStatus(c echo.Context) error {
	realmID, err := helpers.GetRealmIDFromContext(c)
	if err != nil {
		return err
	}

	var req struct {
		Status realm.RealmStatus `json:"status" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rlm, err := s.realmService.SetStatus(c.Request().Context(), realmID, req.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if s.auditSvc != nil {
		actorID, _ := helpers.GetUserIDFromContext(c)
		_ = s.auditSvc.LogAction(c.Request().Context(), &audit.CreateAuditLogRequest{
			RealmID:    realmID,
			UserID:     &actorID,
			Action:     audit.ActionUpdate,
			Resource:   audit.ResourceRealm,
			ResourceID: &realmID,
			Details:    map[string]any{"status": rlm.Status},
			IPAddress:  c.RealIP(),
			UserAgent:  c.Request().UserAgent(),
		})
	}

	return c.JSON(http.StatusOK, rlm)
}
