package helpers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/threadlinehq/accounts-service/internal/core/domain/realm"
	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
)

type ctxKey string

const (
	keyRealm     ctxKey = "realm"
	keyRealmID   ctxKey = "realm_id"
	keyUserID    ctxKey = "user_id"
	keyUserRole  ctxKey = "user_role"
	keyUserEmail ctxKey = "user_email"
)

func SetRealm(c echo.Context, r *realm.Realm) { c.Set(string(keyRealm), r) }
func GetRealm(c echo.Context) (*realm.Realm, bool) {
	v := c.Get(string(keyRealm))
	r, ok := v.(*realm.Realm)
	return r, ok
}

func SetRealmID(c echo.Context, id uuid.UUID) { c.Set(string(keyRealmID), id) }
func GetRealmIDRaw(c echo.Context) (uuid.UUID, bool) {
	v := c.Get(string(keyRealmID))
	id, ok := v.(uuid.UUID)
	return id, ok
}

func SetUserID(c echo.Context, id uuid.UUID) { c.Set(string(keyUserID), id) }
func GetUserIDRaw(c echo.Context) (uuid.UUID, bool) {
	v := c.Get(string(keyUserID))
	id, ok := v.(uuid.UUID)
	return id, ok
}

func SetUserRole(c echo.Context, r user.UserRole) { c.Set(string(keyUserRole), r) }
func GetUserRoleRaw(c echo.Context) (user.UserRole, bool) {
	v := c.Get(string(keyUserRole))
	r, ok := v.(user.UserRole)
	return r, ok
}

func SetUserEmail(c echo.Context, email string) { c.Set(string(keyUserEmail), email) }
func GetUserEmailRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyUserEmail))
	s, ok := v.(string)
	return s, ok
}
