package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Identity is supplied by the external auth layer as trusted headers on every
// request; this service performs no token verification of its own.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// RequireRole extracts the caller identity and enforces the expected role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get(HeaderUserID)
			userRole := c.Request().Header.Get(HeaderUserRole)

			if userID == "" || userRole == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
			}
			if userRole != role {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextUserRole, userRole)
			return next(c)
		}
	}
}

// UserID returns the authenticated caller id set by RequireRole.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}
