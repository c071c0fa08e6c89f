package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medihub/health-portal/internal/api/metrics"
	"github.com/medihub/health-portal/internal/core/domain"
	"github.com/medihub/health-portal/internal/core/ports"
)

// SessionHandler exposes the session gate over HTTP.
type SessionHandler struct {
	gate ports.SessionGate
}

func NewSessionHandler(gate ports.SessionGate) *SessionHandler {
	return &SessionHandler{gate: gate}
}

type loginRequest struct {
	Email    string `json:"email" validate:"max=320"`
	Password string `json:"password" validate:"max=1024"`
}

type loginResponse struct {
	User *domain.Identity `json:"user"`
}

// Login authenticates against the credential store and makes the identity current.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /auth/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	start := time.Now()
	user, err := h.gate.Login(c.Request().Context(), req.Email, req.Password)
	result := loginResult(err)
	metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
	metrics.LoginDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	metrics.SetAuthenticated(h.gate.IsAuthenticated())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{User: user})
}

// Logout clears the current session. It always succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	h.gate.Logout(c.Request().Context())
	metrics.LogoutsTotal.Inc()
	metrics.SetAuthenticated(false)
	return c.NoContent(http.StatusNoContent)
}

// Session reports the gate state without guarding on it.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.SessionSnapshot
// @Router       /auth/session [get]
func (h *SessionHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, h.gate.Snapshot())
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrLoginInProgress):
		return "in_progress"
	case errors.Is(err, domain.ErrSessionUnresolved):
		return "unresolved"
	default:
		return "error"
	}
}
