package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medihub/health-portal/internal/api/middleware"
	"github.com/medihub/health-portal/internal/core/domain"
	"github.com/medihub/health-portal/internal/core/ports"
)

// DashboardHandler selects role-specific views for the current identity.
type DashboardHandler struct {
	users ports.IdentityLister
}

func NewDashboardHandler(users ports.IdentityLister) *DashboardHandler {
	return &DashboardHandler{users: users}
}

type dashboardResponse struct {
	View       string           `json:"view"`
	Title      string           `json:"title"`
	Navigation []domain.NavItem `json:"navigation"`
	User       *domain.Identity `json:"user"`
}

type usersResponse struct {
	Users []domain.Identity `json:"users"`
	Total int               `json:"total"`
}

// Dashboard returns the dashboard view and navigation for the caller's role.
//
// @Summary      Role dashboard
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/dashboard [get]
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	view := identity.Role.DashboardView()
	if view == "" {
		return echo.NewHTTPError(http.StatusForbidden, "unknown user role")
	}

	return c.JSON(http.StatusOK, dashboardResponse{
		View:       view,
		Title:      identity.Role.PortalTitle(),
		Navigation: identity.Role.Navigation(),
		User:       identity,
	})
}

// Users lists the portal accounts. Admin only.
//
// @Summary      List portal users
// @Tags         admin
// @Produce      json
// @Success      200  {object}  usersResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/users [get]
func (h *DashboardHandler) Users(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users, Total: len(users)})
}
