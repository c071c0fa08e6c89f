package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medihub/health-portal/internal/core/domain"
	"github.com/medihub/health-portal/internal/core/ports"
)

// Context keys set by RequireSession.
const (
	ContextKeyIdentity = "identity"
	ContextKeyRole     = "role"
)

// RequireSession guards a route on the session gate. While the gate is
// loading the decision is deferred with 503 and Retry-After; it is never
// treated as anonymous. Anonymous callers get 401.
func RequireSession(gate ports.SessionGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := gate.Snapshot()
			if snap.IsLoading {
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is loading")
			}
			if !snap.IsAuthenticated || snap.User == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			c.Set(ContextKeyIdentity, snap.User)
			c.Set(ContextKeyRole, snap.User.Role)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity placed on the context by RequireSession.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	identity, ok := c.Get(ContextKeyIdentity).(*domain.Identity)
	return identity, ok && identity != nil
}
