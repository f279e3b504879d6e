package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/invenly/dashboard-session/internal/core/service"
)

// RequirePermissions guards an edge route behind the current session's
// permission set. The route gate has already ensured a token is present;
// this layers the finer-grained check the dashboard derives from the
// session user.
func RequirePermissions(session *service.Session, required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := session.Snapshot()
			if !snap.Authenticated || snap.User == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !snap.User.HasAllPermissions(required...) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
