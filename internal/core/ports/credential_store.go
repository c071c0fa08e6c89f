package ports

import (
	"context"

	"github.com/medihub/health-portal/internal/core/domain"
)

// CredentialStore resolves login candidates and checks their passwords.
// It stands in for a real identity provider; the session gate only sees
// this interface.
type CredentialStore interface {
	// Lookup returns the candidate whose email matches exactly, or
	// domain.ErrIdentityNotFound.
	Lookup(ctx context.Context, email string) (*domain.Identity, error)
	// Verify reports whether password is the known-good value for candidate.
	Verify(ctx context.Context, candidate *domain.Identity, password string) (bool, error)
}

// IdentityLister enumerates the accounts a credential store knows about.
type IdentityLister interface {
	List(ctx context.Context) ([]domain.Identity, error)
}
