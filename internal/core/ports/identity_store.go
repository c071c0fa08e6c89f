package ports

import (
	"context"

	"github.com/medihub/health-portal/internal/core/domain"
)

// IdentityStore persists the single current identity across restarts.
type IdentityStore interface {
	// Load returns (nil, nil) when nothing is stored.
	Load(ctx context.Context) (*domain.Identity, error)
	Save(ctx context.Context, identity *domain.Identity) error
	Clear(ctx context.Context) error
}
