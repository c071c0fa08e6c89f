package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medihub/health-portal/internal/core/domain"
	"github.com/medihub/health-portal/internal/core/ports"
)

var _ ports.SessionGate = (*SessionGate)(nil)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubIdentityStore struct {
	record   *domain.Identity
	loadErr  error
	saveErr  error
	clearErr error
	saves    int
	clears   int
}

func (s *stubIdentityStore) Load(_ context.Context) (*domain.Identity, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.record.Clone(), nil
}

func (s *stubIdentityStore) Save(_ context.Context, identity *domain.Identity) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.record = identity.Clone()
	return nil
}

func (s *stubIdentityStore) Clear(_ context.Context) error {
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.record = nil
	return nil
}

// blockingSaveStore parks Save until release is closed.
type blockingSaveStore struct {
	stubIdentityStore
	saving  chan struct{}
	release chan struct{}
}

func (s *blockingSaveStore) Save(ctx context.Context, identity *domain.Identity) error {
	close(s.saving)
	<-s.release
	return s.stubIdentityStore.Save(ctx, identity)
}

type failingDirectory struct{ err error }

func (d failingDirectory) Lookup(context.Context, string) (*domain.Identity, error) {
	return nil, d.err
}

func (d failingDirectory) Verify(context.Context, *domain.Identity, string) (bool, error) {
	return false, d.err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestGate(store ports.IdentityStore) *SessionGate {
	return NewSessionGate(NewMockDirectory(), store, -1, zerolog.Nop())
}

func resolvedGate(t *testing.T, store ports.IdentityStore) *SessionGate {
	t.Helper()
	g := newTestGate(store)
	g.Init(context.Background())
	return g
}

// ---------------------------------------------------------------------------
// Init
// ---------------------------------------------------------------------------

func TestSessionGate_StartsUnresolvedAndLoading(t *testing.T) {
	g := newTestGate(&stubIdentityStore{})

	snap := g.Snapshot()
	if snap.State != domain.StateUnresolved {
		t.Fatalf("expected unresolved, got %s", snap.State)
	}
	if !g.IsLoading() || !snap.IsLoading {
		t.Fatalf("expected loading before Init")
	}
	if g.IsAuthenticated() {
		t.Fatalf("expected not authenticated before Init")
	}
}

func TestSessionGate_Init_EmptyStore(t *testing.T) {
	g := newTestGate(&stubIdentityStore{})

	if out := g.Init(context.Background()); out != domain.RestoreEmpty {
		t.Fatalf("expected empty outcome, got %s", out)
	}
	if g.IsLoading() {
		t.Fatalf("expected loading cleared after Init")
	}
	if g.Snapshot().State != domain.StateAnonymous {
		t.Fatalf("expected anonymous, got %s", g.Snapshot().State)
	}
}

func TestSessionGate_Init_RestoresPersistedIdentity(t *testing.T) {
	want := MockCandidates[1]
	g := newTestGate(&stubIdentityStore{record: &want})

	if out := g.Init(context.Background()); out != domain.RestoreRestored {
		t.Fatalf("expected restored outcome, got %s", out)
	}
	if !g.IsAuthenticated() {
		t.Fatalf("expected authenticated after restore")
	}
	if got := g.Current(); got == nil || *got != want {
		t.Fatalf("restored identity mismatch: %+v", got)
	}
	if g.Snapshot().SessionID == "" {
		t.Fatalf("expected session id after restore")
	}
}

func TestSessionGate_Init_MalformedRecordFallsBackAndClears(t *testing.T) {
	store := &stubIdentityStore{loadErr: domain.ErrMalformedRecord}
	g := newTestGate(store)

	if out := g.Init(context.Background()); out != domain.RestoreDiscarded {
		t.Fatalf("expected discarded outcome, got %s", out)
	}
	if g.IsAuthenticated() {
		t.Fatalf("expected anonymous after malformed record")
	}
	if store.clears != 1 {
		t.Fatalf("expected malformed record to be cleared, clears=%d", store.clears)
	}
}

func TestSessionGate_Init_StoreErrorFallsBackWithoutClearing(t *testing.T) {
	store := &stubIdentityStore{loadErr: errors.New("connection refused")}
	g := newTestGate(store)

	if out := g.Init(context.Background()); out != domain.RestoreFailed {
		t.Fatalf("expected failed outcome, got %s", out)
	}
	if g.Snapshot().State != domain.StateAnonymous {
		t.Fatalf("expected anonymous, got %s", g.Snapshot().State)
	}
	if store.clears != 0 {
		t.Fatalf("store should not be cleared on read failure")
	}
}

func TestSessionGate_Init_RunsOnce(t *testing.T) {
	want := MockCandidates[0]
	store := &stubIdentityStore{}
	g := newTestGate(store)
	g.Init(context.Background())

	store.record = &want
	if out := g.Init(context.Background()); out != domain.RestoreEmpty {
		t.Fatalf("second Init should return first outcome, got %s", out)
	}
	if g.IsAuthenticated() {
		t.Fatalf("second Init must not rehydrate again")
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestSessionGate_Login_AllCandidates(t *testing.T) {
	for _, c := range MockCandidates {
		t.Run(string(c.Role), func(t *testing.T) {
			store := &stubIdentityStore{}
			g := resolvedGate(t, store)

			got, err := g.Login(context.Background(), c.Email, MockPasswords[c.Role])
			if err != nil {
				t.Fatalf("login failed: %v", err)
			}
			if *got != c {
				t.Fatalf("expected %+v, got %+v", c, got)
			}
			if !g.IsAuthenticated() {
				t.Fatalf("expected authenticated")
			}
			if g.Snapshot().State != domain.StateAuthenticated {
				t.Fatalf("expected authenticated state")
			}
			if store.record == nil || *store.record != c {
				t.Fatalf("expected identity persisted, got %+v", store.record)
			}
		})
	}
}

func TestSessionGate_Login_Doctor(t *testing.T) {
	g := resolvedGate(t, &stubIdentityStore{})

	user, err := g.Login(context.Background(), "doctor@example.com", "Doctor@123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Role != domain.RoleDoctor || user.Name != "Dr. Sarah Smith" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestSessionGate_Login_WrongPassword(t *testing.T) {
	store := &stubIdentityStore{}
	g := resolvedGate(t, store)

	_, err := g.Login(context.Background(), "doctor@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if g.IsAuthenticated() || g.Snapshot().State != domain.StateAnonymous {
		t.Fatalf("expected state to remain anonymous")
	}
	if store.saves != 0 {
		t.Fatalf("nothing should be persisted on failure")
	}
	if g.IsLoading() {
		t.Fatalf("loading flag must be cleared after failure")
	}
}

func TestSessionGate_Login_OtherRolePasswordRejected(t *testing.T) {
	g := resolvedGate(t, &stubIdentityStore{})

	if _, err := g.Login(context.Background(), "patient@example.com", "Admin@123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionGate_Login_UnknownEmail(t *testing.T) {
	g := resolvedGate(t, &stubIdentityStore{})

	if _, err := g.Login(context.Background(), "ghost@example.com", "Patient@123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionGate_Login_FailureKeepsExistingSession(t *testing.T) {
	g := resolvedGate(t, &stubIdentityStore{})
	if _, err := g.Login(context.Background(), "admin@example.com", "Admin@123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	before := g.Snapshot()

	if _, err := g.Login(context.Background(), "doctor@example.com", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	after := g.Snapshot()
	if after.User == nil || after.User.Role != domain.RoleAdmin || after.SessionID != before.SessionID {
		t.Fatalf("failed login changed the session: before=%+v after=%+v", before, after)
	}
}

func TestSessionGate_Login_BeforeInit(t *testing.T) {
	g := newTestGate(&stubIdentityStore{})

	if _, err := g.Login(context.Background(), "admin@example.com", "Admin@123"); !errors.Is(err, domain.ErrSessionUnresolved) {
		t.Fatalf("expected ErrSessionUnresolved, got %v", err)
	}
}

func TestSessionGate_Login_LoadingWhileInFlight(t *testing.T) {
	g := resolvedGate(t, &stubIdentityStore{})

	entered := make(chan struct{})
	release := make(chan struct{})
	g.sleep = func(ctx context.Context, _ time.Duration) error {
		close(entered)
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := g.Login(context.Background(), "patient@example.com", "Patient@123")
		done <- err
	}()

	<-entered
	if !g.IsLoading() {
		t.Fatalf("expected loading while login is in flight")
	}
	if g.IsAuthenticated() {
		t.Fatalf("must not be authenticated before login completes")
	}

	if _, err := g.Login(context.Background(), "doctor@example.com", "Doctor@123"); !errors.Is(err, domain.ErrLoginInProgress) {
		t.Fatalf("expected ErrLoginInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	if g.IsLoading() {
		t.Fatalf("expected loading cleared")
	}
	if u := g.Current(); u == nil || u.Role != domain.RolePatient {
		t.Fatalf("expected patient session, got %+v", u)
	}
}

func TestSessionGate_Login_StaysInFlightUntilReturned(t *testing.T) {
	var (
		g                *SessionGate
		hooked           bool
		loadingAtCommit  bool
		overlappingLogin error
	)
	hook := zerolog.HookFunc(func(_ *zerolog.Event, _ zerolog.Level, msg string) {
		if msg != "login succeeded" || hooked {
			return
		}
		hooked = true
		loadingAtCommit = g.IsLoading()
		_, overlappingLogin = g.Login(context.Background(), "doctor@example.com", "Doctor@123")
	})

	g = NewSessionGate(NewMockDirectory(), &stubIdentityStore{}, -1, zerolog.New(io.Discard).Hook(hook))
	g.Init(context.Background())
	g.sleep = func(context.Context, time.Duration) error {
		if hooked {
			return errors.New("overlapping login reached its delay")
		}
		return nil
	}

	if _, err := g.Login(context.Background(), "patient@example.com", "Patient@123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !hooked {
		t.Fatalf("expected the success log line")
	}
	if !loadingAtCommit {
		t.Fatalf("expected loading until the login call returns")
	}
	if !errors.Is(overlappingLogin, domain.ErrLoginInProgress) {
		t.Fatalf("expected ErrLoginInProgress for overlapping login, got %v", overlappingLogin)
	}
	if g.IsLoading() {
		t.Fatalf("expected loading cleared after return")
	}
	if u := g.Current(); u == nil || u.Role != domain.RolePatient {
		t.Fatalf("expected patient session, got %+v", u)
	}
}

func TestSessionGate_Logout_WaitsForPendingSave(t *testing.T) {
	store := &blockingSaveStore{saving: make(chan struct{}), release: make(chan struct{})}
	g := resolvedGate(t, store)

	loginDone := make(chan error, 1)
	go func() {
		_, err := g.Login(context.Background(), "patient@example.com", "Patient@123")
		loginDone <- err
	}()
	<-store.saving

	logoutDone := make(chan struct{})
	go func() {
		g.Logout(context.Background())
		close(logoutDone)
	}()

	select {
	case <-logoutDone:
		t.Fatalf("logout must wait for the pending save")
	case <-time.After(20 * time.Millisecond):
	}

	close(store.release)
	if err := <-loginDone; err != nil {
		t.Fatalf("login: %v", err)
	}
	<-logoutDone

	if g.IsAuthenticated() {
		t.Fatalf("expected logout to win after the login committed")
	}
	if store.record != nil {
		t.Fatalf("memory is anonymous but storage still holds %+v", store.record)
	}
}

func TestSessionGate_Login_ContextCancelled(t *testing.T) {
	store := &stubIdentityStore{}
	g := NewSessionGate(NewMockDirectory(), store, time.Hour, zerolog.Nop())
	g.Init(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Login(ctx, "admin@example.com", "Admin@123"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if g.IsAuthenticated() || store.saves != 0 {
		t.Fatalf("cancelled login must not change state")
	}
	if g.IsLoading() {
		t.Fatalf("expected loading cleared after cancellation")
	}
}

func TestSessionGate_Login_PersistFailureLeavesStateUnchanged(t *testing.T) {
	store := &stubIdentityStore{saveErr: errors.New("disk full")}
	g := resolvedGate(t, store)

	_, err := g.Login(context.Background(), "admin@example.com", "Admin@123")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if g.IsAuthenticated() {
		t.Fatalf("state must not change when persisting fails")
	}
}

func TestSessionGate_Login_DirectoryError(t *testing.T) {
	boom := errors.New("directory down")
	g := NewSessionGate(failingDirectory{err: boom}, &stubIdentityStore{}, -1, zerolog.Nop())
	g.Init(context.Background())

	_, err := g.Login(context.Background(), "admin@example.com", "Admin@123")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped directory error, got %v", err)
	}
}

func TestSessionGate_CurrentReturnsCopy(t *testing.T) {
	g := resolvedGate(t, &stubIdentityStore{})
	if _, err := g.Login(context.Background(), "patient@example.com", "Patient@123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	u := g.Current()
	u.Role = domain.RoleAdmin

	if g.Current().Role != domain.RolePatient {
		t.Fatalf("caller mutation leaked into the session")
	}
}

// ---------------------------------------------------------------------------
// Logout and restart
// ---------------------------------------------------------------------------

func TestSessionGate_Logout(t *testing.T) {
	store := &stubIdentityStore{}
	g := resolvedGate(t, store)
	if _, err := g.Login(context.Background(), "doctor@example.com", "Doctor@123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	g.Logout(context.Background())

	if g.IsAuthenticated() {
		t.Fatalf("expected anonymous after logout")
	}
	if store.record != nil {
		t.Fatalf("expected persisted record removed")
	}
	if g.Snapshot().SessionID != "" {
		t.Fatalf("expected session id cleared")
	}
}

func TestSessionGate_Logout_StoreErrorStillSucceeds(t *testing.T) {
	store := &stubIdentityStore{}
	g := resolvedGate(t, store)
	if _, err := g.Login(context.Background(), "doctor@example.com", "Doctor@123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	store.clearErr = errors.New("readonly")

	g.Logout(context.Background())

	if g.IsAuthenticated() {
		t.Fatalf("logout must always clear the session")
	}
}

func TestSessionGate_RestartAfterLogout(t *testing.T) {
	store := &stubIdentityStore{}
	g := resolvedGate(t, store)
	if _, err := g.Login(context.Background(), "admin@example.com", "Admin@123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	g.Logout(context.Background())

	restarted := resolvedGate(t, store)
	if restarted.IsAuthenticated() {
		t.Fatalf("expected anonymous after restart with cleared storage")
	}
}

func TestSessionGate_RestartKeepsSession(t *testing.T) {
	for _, c := range MockCandidates {
		store := &stubIdentityStore{}
		g := resolvedGate(t, store)
		if _, err := g.Login(context.Background(), c.Email, MockPasswords[c.Role]); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		restarted := resolvedGate(t, store)
		if got := restarted.Current(); got == nil || *got != c {
			t.Fatalf("expected %+v after restart, got %+v", c, got)
		}
	}
}
