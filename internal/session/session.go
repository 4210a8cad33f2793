// Package session owns the authenticated identity: login, registration,
// logout and restoring a persisted credential at startup.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/naveenspark/tempo/internal/backend"
	"github.com/naveenspark/tempo/pkg/domain"
)

// State is the session state machine.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	// Error means unauthenticated with a message to show.
	Error
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrSessionExpired is returned when the stored credential can no longer
	// be used and the session was logged out.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrSuperseded is returned when the session changed while a call was in
	// flight; its result was discarded.
	ErrSuperseded = errors.New("session changed during the request")
	// ErrBusy is returned when a login is already in progress.
	ErrBusy = errors.New("login already in progress")
)

// KeyStore is the durable token/profile storage.
type KeyStore interface {
	SaveSession(token string, u domain.User) error
	LoadSession() (string, *domain.User, error)
	ClearSession() error
}

// Prober is the availability loop tied to the session lifetime.
type Prober interface {
	Reachable() bool
	Probe(ctx context.Context) bool
	Start(ctx context.Context) (stop func())
	Stop()
}

// Rememberer is implemented by backends that can cache a remotely issued
// credential for offline use.
type Rememberer interface {
	Remember(ctx context.Context, token string, u domain.User, password string) error
}

// Snapshot is an immutable copy of the store.
type Snapshot struct {
	State   State
	Session domain.Session
	Message string
	Epoch   uint64
}

// Store holds the current session. Safe for concurrent use.
type Store struct {
	sel    *backend.Selector
	keys   KeyStore
	prober Prober
	log    zerolog.Logger

	mu      sync.Mutex
	state   State
	session domain.Session
	user    *domain.User
	message string
	epoch   uint64
}

// New returns an anonymous store.
func New(sel *backend.Selector, keys KeyStore, prober Prober, log zerolog.Logger) *Store {
	return &Store{
		sel:    sel,
		keys:   keys,
		prober: prober,
		log:    log.With().Str("component", "session").Logger(),
	}
}

// Snapshot returns a copy of the current state. BackendReachable reflects
// the live flag for the backend serving the session; sessions on a local
// credential are never reachable.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session
	sess.BackendReachable = s.reachableFor(sess.Token)
	return Snapshot{State: s.state, Session: sess, Message: s.message, Epoch: s.epoch}
}

// Token returns the current credential, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token
}

// Epoch identifies the current session. It changes on every login and logout.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Login authenticates against the selected backend, falling back to the
// local backend when the remote cannot be reached. A rejection leaves the
// store in the Error state with the backend's message.
func (s *Store) Login(ctx context.Context, email, password string) (Snapshot, error) {
	s.mu.Lock()
	if s.state == Authenticating {
		s.mu.Unlock()
		return s.Snapshot(), ErrBusy
	}
	s.state = Authenticating
	s.message = ""
	epoch := s.epoch
	s.mu.Unlock()

	// The flag is only refreshed while a session is live, so a stale
	// unreachable reading is rechecked before it pins the new session to
	// the local backend.
	s.recheck(ctx)
	tok, used, err := backend.Call(ctx, s.sel, "login", "", func(ctx context.Context, b backend.Backend) (*domain.AuthToken, error) {
		return b.Login(ctx, email, password)
	})
	loginsTotal.WithLabelValues(backendName(used), outcome(err)).Inc()

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return s.Snapshot(), ErrSuperseded
	}
	if err != nil {
		ended := s.fail(err)
		s.mu.Unlock()
		if ended {
			s.afterLogout()
		}
		s.log.Info().Err(err).Str("email", email).Msg("login failed")
		return s.Snapshot(), err
	}
	if tok.User == nil {
		ended := s.fail(errors.New("backend returned no user profile"))
		s.mu.Unlock()
		if ended {
			s.afterLogout()
		}
		return s.Snapshot(), fmt.Errorf("session.Login: backend returned no user profile")
	}
	s.authenticate(*tok.User, tok.AccessToken)
	s.mu.Unlock()

	if err := s.keys.SaveSession(tok.AccessToken, *tok.User); err != nil {
		s.log.Warn().Err(err).Msg("could not persist session")
	}
	if used == s.sel.Remote() {
		if r, ok := s.sel.Local().(Rememberer); ok {
			if err := r.Remember(ctx, tok.AccessToken, *tok.User, password); err != nil {
				s.log.Warn().Err(err).Msg("could not cache credentials for offline use")
			}
		}
	}
	s.log.Info().Str("user_id", tok.User.ID).Str("backend", backendName(used)).Msg("logged in")
	return s.Snapshot(), nil
}

// Register creates an account. It does not log in; callers that want the
// new user signed in call Login afterwards.
func (s *Store) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	reg, used, err := backend.Call(ctx, s.sel, "register", "", func(ctx context.Context, b backend.Backend) (*domain.Registration, error) {
		return b.Register(ctx, req)
	})
	if err != nil {
		s.mu.Lock()
		var ended bool
		if s.state != Authenticated {
			ended = s.fail(err)
		}
		s.mu.Unlock()
		if ended {
			s.afterLogout()
		}
		return nil, err
	}
	s.log.Info().Str("user_id", reg.User.ID).Str("backend", backendName(used)).Msg("registered")
	u := reg.User
	return &u, nil
}

// Logout clears the session and its persisted copy. It always succeeds.
func (s *Store) Logout() {
	s.mu.Lock()
	s.reset(Anonymous, "")
	s.mu.Unlock()
	s.afterLogout()
}

// HandleUnauthorized logs out if epoch is still the current session. Stores
// call it when a reachable backend rejects the credential.
func (s *Store) HandleUnauthorized(epoch uint64) {
	s.mu.Lock()
	if epoch != s.epoch || s.state != Authenticated {
		s.mu.Unlock()
		return
	}
	s.reset(Error, ErrSessionExpired.Error())
	s.mu.Unlock()
	s.log.Warn().Msg("credential rejected, logged out")
	s.afterLogout()
}

// ClearError returns from the Error state to Anonymous.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Error {
		s.state = Anonymous
		s.message = ""
	}
}

// FetchCurrentUser returns the profile for the current token, fetching it
// when it isn't cached. If the remote cannot be reached the last persisted
// profile is used. Any other failure, or no persisted profile, logs the
// session out and returns ErrSessionExpired.
func (s *Store) FetchCurrentUser(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	token, epoch, cached := s.session.Token, s.epoch, s.user
	s.mu.Unlock()

	if token == "" {
		return nil, ErrNotAuthenticated
	}
	if cached != nil {
		u := *cached
		return &u, nil
	}

	u, used, err := backend.Call(ctx, s.sel, "me", token, func(ctx context.Context, b backend.Backend) (*domain.User, error) {
		return b.Me(ctx, token)
	})
	if err == nil {
		if !s.adoptUser(epoch, *u) {
			return nil, ErrSuperseded
		}
		if err := s.keys.SaveSession(token, *u); err != nil {
			s.log.Warn().Err(err).Msg("could not persist profile")
		}
		return u, nil
	}

	if s.sel.CredentialRejected(used, token, err) {
		s.HandleUnauthorized(epoch)
		return nil, ErrSessionExpired
	}
	// A remote credential answered by the local backend means the remote
	// was unreachable; the local refusal says nothing about the token.
	offline := backend.IsUnreachable(err) || (used == s.sel.Local() && !backend.IsLocalToken(token))
	if !offline {
		s.log.Warn().Err(err).Msg("profile fetch rejected")
		s.HandleUnauthorized(epoch)
		return nil, ErrSessionExpired
	}

	_, persisted, loadErr := s.keys.LoadSession()
	if loadErr == nil && persisted != nil {
		s.log.Info().Err(err).Msg("using persisted profile")
		if !s.adoptUser(epoch, *persisted) {
			return nil, ErrSuperseded
		}
		return persisted, nil
	}

	s.HandleUnauthorized(epoch)
	return nil, ErrSessionExpired
}

// Restore loads the persisted credential at startup. With a token but no
// profile it fetches the profile, which may end in ErrSessionExpired.
func (s *Store) Restore(ctx context.Context) (Snapshot, error) {
	token, u, err := s.keys.LoadSession()
	if err != nil {
		return s.Snapshot(), fmt.Errorf("session.Restore: %w", err)
	}
	if token == "" {
		return s.Snapshot(), nil
	}
	if !backend.IsLocalToken(token) {
		s.recheck(ctx)
	}

	s.mu.Lock()
	if u != nil {
		s.authenticate(*u, token)
	} else {
		s.authenticate(domain.User{}, token)
		s.user = nil
	}
	s.mu.Unlock()

	if u == nil {
		if _, err := s.FetchCurrentUser(ctx); err != nil {
			return s.Snapshot(), err
		}
	}
	s.log.Debug().Bool("local", backend.IsLocalToken(token)).Msg("session restored")
	return s.Snapshot(), nil
}

// authenticate switches to a new session. Caller holds s.mu.
func (s *Store) authenticate(u domain.User, token string) {
	s.epoch++
	s.state = Authenticated
	s.message = ""
	s.session = domain.SessionFor(u, token, s.reachableFor(token))
	user := u
	s.user = &user
	s.prober.Start(context.Background())
}

// fail records err as the visible message. It reports whether a live
// session was ended, in which case the caller runs afterLogout once s.mu is
// released. Caller holds s.mu.
func (s *Store) fail(err error) (ended bool) {
	if s.session.Token != "" {
		s.epoch++
		ended = true
	}
	s.state = Error
	s.message = err.Error()
	s.session = domain.Session{}
	s.user = nil
	return ended
}

// reset ends the session. Caller holds s.mu.
func (s *Store) reset(state State, message string) {
	s.epoch++
	s.state = state
	s.message = message
	s.session = domain.Session{}
	s.user = nil
}

func (s *Store) afterLogout() {
	s.prober.Stop()
	if err := s.keys.ClearSession(); err != nil {
		s.log.Warn().Err(err).Msg("could not clear persisted session")
	}
}

func (s *Store) adoptUser(epoch uint64, u domain.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.state != Authenticated {
		return false
	}
	token := s.session.Token
	s.session = domain.SessionFor(u, token, s.reachableFor(token))
	user := u
	s.user = &user
	return true
}

// recheck probes once when the cached flag says the remote is down.
func (s *Store) recheck(ctx context.Context) {
	if !s.prober.Reachable() {
		s.prober.Probe(ctx)
	}
}

// reachableFor reports whether the backend serving token is reachable.
// Local credentials are only ever served by the local backend.
func (s *Store) reachableFor(token string) bool {
	return !backend.IsLocalToken(token) && s.prober.Reachable()
}

func backendName(b backend.Backend) string {
	if b == nil {
		return "none"
	}
	return b.Name()
}
