package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/threadlinehq/accounts-service/internal/core/domain/audit"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/httpserver/helpers"
)

func (s *Server) getAuditLogs(c echo.Context) error {
	var filter audit.AuditLogFilter
	if err := c.Bind(&filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// Scope the query to the caller's realm regardless of what the filter says.
	realmID, err := helpers.GetRealmIDFromContext(c)
	if err != nil {
		return err
	}
	filter.RealmID = &realmID

	logs, total, err := s.auditSvc.GetAuditLogs(c.Request().Context(), &filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"logs": logs, "total": total})
}
