package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medihub/health-portal/internal/core/domain"
	"github.com/medihub/health-portal/internal/core/ports"
)

const DefaultLoginDelay = time.Second

// SessionGate holds the single current identity of the portal and drives the
// unresolved -> anonymous <-> authenticated lifecycle.
type SessionGate struct {
	credentials ports.CredentialStore
	store       ports.IdentityStore
	loginDelay  time.Duration
	log         zerolog.Logger

	// sleep simulates the authentication round trip.
	sleep func(ctx context.Context, d time.Duration) error

	initOnce sync.Once
	outcome  domain.RestoreOutcome

	// persistMu orders store writes with the in-memory commit, so storage and
	// memory agree after any interleaving of Login and Logout.
	persistMu sync.Mutex

	mu        sync.RWMutex
	state     domain.SessionState
	current   *domain.Identity
	sessionID string
	loggingIn bool
}

// NewSessionGate returns a gate in the unresolved state. Init must run before
// any routing decision is taken from it. A negative loginDelay disables the
// simulated latency; zero selects DefaultLoginDelay.
func NewSessionGate(
	credentials ports.CredentialStore,
	store ports.IdentityStore,
	loginDelay time.Duration,
	log zerolog.Logger,
) *SessionGate {
	if loginDelay == 0 {
		loginDelay = DefaultLoginDelay
	}
	return &SessionGate{
		credentials: credentials,
		store:       store,
		loginDelay:  loginDelay,
		log:         log,
		sleep:       sleepContext,
		state:       domain.StateUnresolved,
	}
}

// Init rehydrates the persisted identity once. Later calls return the first
// outcome without touching storage. It never fails: anything unreadable
// resolves to anonymous.
func (g *SessionGate) Init(ctx context.Context) domain.RestoreOutcome {
	g.initOnce.Do(func() {
		g.outcome = g.rehydrate(ctx)
	})
	return g.outcome
}

func (g *SessionGate) rehydrate(ctx context.Context) domain.RestoreOutcome {
	identity, err := g.store.Load(ctx)

	var outcome domain.RestoreOutcome
	switch {
	case errors.Is(err, domain.ErrMalformedRecord):
		g.log.Warn().Err(err).Msg("discarding malformed persisted identity")
		if clearErr := g.store.Clear(ctx); clearErr != nil {
			g.log.Warn().Err(clearErr).Msg("failed to clear malformed identity")
		}
		identity, outcome = nil, domain.RestoreDiscarded
	case err != nil:
		g.log.Warn().Err(err).Msg("identity store unreadable, starting anonymous")
		identity, outcome = nil, domain.RestoreFailed
	case identity == nil:
		outcome = domain.RestoreEmpty
	default:
		outcome = domain.RestoreRestored
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if identity != nil {
		g.current = identity.Clone()
		g.sessionID = uuid.NewString()
		g.state = domain.StateAuthenticated
		g.log.Info().
			Str("user_id", identity.ID).
			Str("role", string(identity.Role)).
			Str("session_id", g.sessionID).
			Msg("session restored")
	} else {
		g.state = domain.StateAnonymous
	}
	return outcome
}

// Login authenticates email/password against the credential store after the
// simulated round trip. On success the identity is persisted, then becomes
// current. On any failure the gate is left exactly as it was.
func (g *SessionGate) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	if err := g.beginLogin(); err != nil {
		return nil, err
	}
	defer g.endLogin()

	if err := g.sleep(ctx, g.loginDelay); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	identity, err := g.authenticate(ctx, email, password)
	if err != nil {
		g.log.Info().Str("email", email).Err(err).Msg("login rejected")
		return nil, err
	}

	g.persistMu.Lock()
	if err := g.store.Save(ctx, identity); err != nil {
		g.persistMu.Unlock()
		return nil, fmt.Errorf("login: persist identity: %w", err)
	}

	g.mu.Lock()
	g.current = identity.Clone()
	g.sessionID = uuid.NewString()
	g.state = domain.StateAuthenticated
	sessionID := g.sessionID
	g.mu.Unlock()
	g.persistMu.Unlock()

	g.log.Info().
		Str("user_id", identity.ID).
		Str("role", string(identity.Role)).
		Str("session_id", sessionID).
		Msg("login succeeded")

	return identity.Clone(), nil
}

func (g *SessionGate) beginLogin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == domain.StateUnresolved {
		return domain.ErrSessionUnresolved
	}
	if g.loggingIn {
		return domain.ErrLoginInProgress
	}
	g.loggingIn = true
	return nil
}

func (g *SessionGate) endLogin() {
	g.mu.Lock()
	g.loggingIn = false
	g.mu.Unlock()
}

func (g *SessionGate) authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	candidate, err := g.credentials.Lookup(ctx, email)
	if errors.Is(err, domain.ErrIdentityNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: lookup: %w", err)
	}

	ok, err := g.credentials.Verify(ctx, candidate, password)
	if err != nil {
		return nil, fmt.Errorf("login: verify: %w", err)
	}
	if !ok || !candidate.Role.Valid() {
		return nil, domain.ErrInvalidCredentials
	}
	return candidate, nil
}

// Logout clears the current identity and its persisted record. It is a no-op
// before Init and always succeeds; a storage failure is only logged. A logout
// that arrives while a login is saving waits for that login to commit.
func (g *SessionGate) Logout(ctx context.Context) {
	g.persistMu.Lock()
	defer g.persistMu.Unlock()

	g.mu.Lock()
	if g.state == domain.StateUnresolved {
		g.mu.Unlock()
		return
	}
	prev := g.current
	prevSession := g.sessionID
	g.current = nil
	g.sessionID = ""
	g.state = domain.StateAnonymous
	g.mu.Unlock()

	if err := g.store.Clear(ctx); err != nil {
		g.log.Warn().Err(err).Msg("failed to clear persisted identity")
	}

	if prev != nil {
		g.log.Info().
			Str("user_id", prev.ID).
			Str("session_id", prevSession).
			Msg("logged out")
	}
}

func (g *SessionGate) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current != nil
}

// IsLoading is true until Init completes and while a login is in flight.
// Guards must defer their decision while it is true.
func (g *SessionGate) IsLoading() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state == domain.StateUnresolved || g.loggingIn
}

// Current returns a copy of the current identity, or nil.
func (g *SessionGate) Current() *domain.Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current.Clone()
}

func (g *SessionGate) Snapshot() domain.SessionSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return domain.SessionSnapshot{
		State:           g.state,
		IsLoading:       g.state == domain.StateUnresolved || g.loggingIn,
		IsAuthenticated: g.current != nil,
		SessionID:       g.sessionID,
		User:            g.current.Clone(),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
