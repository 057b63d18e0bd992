package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/threadlinehq/accounts-service/internal/core/domain/confirmation"
	"github.com/threadlinehq/accounts-service/internal/core/domain/emailchange"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/httpserver/helpers"
)

// requestEmailChange starts an email change for the authenticated user.
func (s *Server) requestEmailChange(c echo.Context) error {
	actor, err := helpers.GetActorFromContext(c)
	if err != nil {
		return err
	}

	var req emailchange.StartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	change, err := s.emailChangeSvc.Request(c.Request().Context(), actor, &req)
	if err != nil {
		return emailChangeError(err)
	}

	if change == nil {
		// Requested address matches the current one.
		return c.JSON(http.StatusOK, map[string]string{
			"message": "email address is unchanged",
		})
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"message":   "confirmation email sent to new address",
		"new_email": change.NewEmail,
	})
}

// confirmNewEmail consumes a confirmation link. GET serves clicks from the
// email itself; POST serves API callers.
func (s *Server) confirmNewEmail(c echo.Context) error {
	var key string

	if c.Request().Method == http.MethodGet {
		key = c.Param("key")
	} else {
		var req emailchange.ConfirmRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		key = req.Key
	}

	updatedUser, err := s.emailChangeSvc.Confirm(c.Request().Context(), key)
	if err != nil {
		RecordConfirmationOutcome(confirmationOutcomeLabel(err))
		if c.Request().Method == http.MethodGet {
			return c.HTML(confirmFailureStatus(err), confirmFailureHTML)
		}
		return emailChangeError(err)
	}

	RecordConfirmationOutcome("confirmed")

	if c.Request().Method == http.MethodGet {
		return c.HTML(http.StatusOK, confirmSuccessHTML)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "email address updated",
		"user":    updatedUser,
	})
}

// emailChangeError maps domain errors to HTTP responses. Every terminal link
// state is a 404 so URL probing cannot distinguish a wrong key from a
// consumed one.
func emailChangeError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, confirmation.ErrMalformedKey),
		errors.Is(err, confirmation.ErrKeyNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "confirmation link does not exist")
	case errors.Is(err, confirmation.ErrExpired):
		return echo.NewHTTPError(http.StatusNotFound, "confirmation link has expired")
	case errors.Is(err, confirmation.ErrAlreadyUsed),
		errors.Is(err, confirmation.ErrInvalidState):
		return echo.NewHTTPError(http.StatusNotFound, "confirmation link has already been used or deactivated")
	case errors.Is(err, emailchange.ErrAccountDeactivated):
		return echo.NewHTTPError(http.StatusUnauthorized, emailchange.ErrAccountDeactivated.Error())
	case errors.Is(err, emailchange.ErrRealmDeactivated):
		return echo.NewHTTPError(http.StatusForbidden, emailchange.ErrRealmDeactivated.Error())
	case errors.Is(err, emailchange.ErrInvalidAddress),
		errors.Is(err, emailchange.ErrEmailTaken),
		errors.Is(err, emailchange.ErrChangesDisabled),
		errors.Is(err, emailchange.ErrDisposableAddress),
		errors.Is(err, emailchange.ErrRestrictedDomain),
		errors.Is(err, emailchange.ErrInvalidPassword):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process email change")
	}
}

func confirmFailureStatus(err error) int {
	return emailChangeError(err).Code
}

// confirmationOutcomeLabel buckets a confirm failure for metrics.
func confirmationOutcomeLabel(err error) string {
	switch {
	case errors.Is(err, confirmation.ErrMalformedKey):
		return "malformed"
	case errors.Is(err, confirmation.ErrKeyNotFound):
		return "not_found"
	case errors.Is(err, confirmation.ErrExpired):
		return "expired"
	case errors.Is(err, confirmation.ErrAlreadyUsed), errors.Is(err, confirmation.ErrInvalidState):
		return "already_used"
	default:
		return "rejected"
	}
}

const confirmSuccessHTML = `<!DOCTYPE html>
<html>
<head><title>Email Updated</title></head>
<body>
    <h1>Email Updated</h1>
    <p>Your email address has been updated. You can close this window.</p>
</body>
</html>`

const confirmFailureHTML = `<!DOCTYPE html>
<html>
<head><title>Email Update Failed</title></head>
<body>
    <h1>Email Update Failed</h1>
    <p>The confirmation link is invalid, has expired, or has already been used.</p>
</body>
</html>`
