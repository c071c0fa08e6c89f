package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medihub/health-portal/internal/core/domain"
)

type stubGate struct {
	snap domain.SessionSnapshot
}

func (g *stubGate) Init(context.Context) domain.RestoreOutcome { return domain.RestoreEmpty }
func (g *stubGate) Login(context.Context, string, string) (*domain.Identity, error) {
	return nil, domain.ErrInvalidCredentials
}
func (g *stubGate) Logout(context.Context)           {}
func (g *stubGate) IsAuthenticated() bool            { return g.snap.IsAuthenticated }
func (g *stubGate) IsLoading() bool                  { return g.snap.IsLoading }
func (g *stubGate) Current() *domain.Identity        { return g.snap.User.Clone() }
func (g *stubGate) Snapshot() domain.SessionSnapshot { return g.snap }

func authenticatedGate(role domain.Role) *stubGate {
	return &stubGate{snap: domain.SessionSnapshot{
		State:           domain.StateAuthenticated,
		IsAuthenticated: true,
		User:            &domain.Identity{ID: "1", Email: "x@example.com", Name: "X", Role: role},
	}}
}

func TestRequireSession_Authenticated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := RequireSession(authenticatedGate(domain.RoleDoctor))(func(c echo.Context) error {
		called = true
		identity, ok := IdentityFrom(c)
		if !ok || identity.Role != domain.RoleDoctor {
			t.Fatalf("identity not set: %+v", identity)
		}
		if c.Get(ContextKeyRole) != domain.RoleDoctor {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestRequireSession_Anonymous(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	gate := &stubGate{snap: domain.SessionSnapshot{State: domain.StateAnonymous}}
	handler := RequireSession(gate)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireSession_LoadingDefersDecision(t *testing.T) {
	for _, snap := range []domain.SessionSnapshot{
		{State: domain.StateUnresolved, IsLoading: true},
		{State: domain.StateAnonymous, IsLoading: true},
	} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := RequireSession(&stubGate{snap: snap})(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", snap.State, rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Fatalf("expected Retry-After header")
		}
	}
}
