package ports

import (
	"context"

	"github.com/medihub/health-portal/internal/core/domain"
)

// SessionGate owns the current identity and the login/logout lifecycle.
type SessionGate interface {
	Init(ctx context.Context) domain.RestoreOutcome
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Logout(ctx context.Context)
	IsAuthenticated() bool
	IsLoading() bool
	Current() *domain.Identity
	Snapshot() domain.SessionSnapshot
}
