package middleware

import (
	"net"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/ports"
	"github.com/threadlinehq/accounts-service/internal/infrastructure/httpserver/helpers"
)

type RealmMiddleware struct {
	realmService ports.RealmService
	baseDomain   string
	logger       *logrus.Logger
}

func NewRealmMiddleware(realmService ports.RealmService, baseDomain string, logger *logrus.Logger) *RealmMiddleware {
	return &RealmMiddleware{realmService: realmService, baseDomain: baseDomain, logger: logger}
}

// ResolveRealm resolves the request's realm from the Host header subdomain.
// Requests on the bare base domain (login, health, metrics) carry no realm
// context; per-route middleware decides whether that is acceptable.
func (m *RealmMiddleware) ResolveRealm() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subdomain := m.subdomainFromHost(c.Request().Host)
			if subdomain == "" {
				return next(c)
			}

			rlm, err := m.realmService.GetRealmBySubdomain(c.Request().Context(), subdomain)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"subdomain": subdomain}).WithError(err).Debug("realm resolution failed")
				}
				return next(c)
			}

			helpers.SetRealm(c, rlm)
			helpers.SetRealmID(c, rlm.ID)
			return next(c)
		}
	}
}

func (m *RealmMiddleware) subdomainFromHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	suffix := "." + strings.ToLower(m.baseDomain)
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	sub := strings.TrimSuffix(host, suffix)
	if sub == "" || strings.Contains(sub, ".") {
		return ""
	}
	return sub
}
