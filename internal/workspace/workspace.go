// Package workspace wires tempo's stores together for the CLI and the TUI:
// one REST client, one prober, one local database, one session, and a timer
// store that is replaced whenever the session changes.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/naveenspark/tempo/internal/backend"
	"github.com/naveenspark/tempo/internal/config"
	"github.com/naveenspark/tempo/internal/keystore"
	"github.com/naveenspark/tempo/internal/probe"
	"github.com/naveenspark/tempo/internal/project"
	"github.com/naveenspark/tempo/internal/report"
	"github.com/naveenspark/tempo/internal/session"
	"github.com/naveenspark/tempo/internal/timer"
	"github.com/naveenspark/tempo/pkg/client"
	"github.com/naveenspark/tempo/pkg/domain"
)

// Workspace owns every long-lived component. Close it on exit.
type Workspace struct {
	Config   *config.Config
	Client   *client.Client
	Prober   *probe.Prober
	Local    *backend.Local
	Selector *backend.Selector
	Keys     *keystore.Store
	Session  *session.Store
	Projects *project.Store
	Reports  *report.Service

	log zerolog.Logger

	mu         sync.Mutex
	timer      *timer.Store
	timerEpoch uint64
}

// Open builds a Workspace from cfg. The local database lives in the state
// directory and is created on first use.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Workspace, error) {
	c, err := client.New(cfg.APIURL, "",
		client.WithHTTPTimeout(cfg.RequestTimeout),
		client.WithRetryMaxElapsed(cfg.RetryMaxElapsed),
		client.WithLogger(log.With().Str("component", "client").Logger()),
		client.WithDebugLogging(cfg.DebugHTTP),
	)
	if err != nil {
		return nil, fmt.Errorf("workspace.Open: %w", err)
	}

	local, err := backend.OpenLocal(ctx, cfg.StatePath(backend.LocalDBFile), log)
	if err != nil {
		return nil, fmt.Errorf("workspace.Open: %w", err)
	}

	prober := probe.New(c, cfg.ProbeInterval, cfg.ProbeTimeout, log)
	sel := backend.NewSelector(backend.NewRemote(c), local, prober, log)
	keys := keystore.New(cfg.StateDir)
	sess := session.New(sel, keys, prober, log)

	return &Workspace{
		Config:   cfg,
		Client:   c,
		Prober:   prober,
		Local:    local,
		Selector: sel,
		Keys:     keys,
		Session:  sess,
		Projects: project.New(sel, sess, log),
		Reports:  report.New(sel, sess, nil, log),
		log:      log,
	}, nil
}

// Timer returns the timer store of the current session, creating a fresh
// one whenever the session has changed since the last call.
func (w *Workspace) Timer() *timer.Store {
	epoch := w.Session.Epoch()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil && w.timerEpoch == epoch {
		return w.timer
	}
	if w.timer != nil {
		w.timer.Close()
	}
	w.timer = timer.New(w.Selector, w.Session, w.log,
		timer.WithCapacity(w.Config.RecentCapacity),
		timer.WithCallTimeout(w.Config.RequestTimeout))
	w.timerEpoch = epoch
	return w.timer
}

// Restore resumes a persisted session and loads its timer and projects.
func (w *Workspace) Restore(ctx context.Context) (session.Snapshot, error) {
	snap, err := w.Session.Restore(ctx)
	if err != nil || snap.State != session.Authenticated {
		return snap, err
	}
	w.load(ctx)
	return w.Session.Snapshot(), nil
}

// Login authenticates and loads the new session's timer and projects.
func (w *Workspace) Login(ctx context.Context, email, password string) (session.Snapshot, error) {
	snap, err := w.Session.Login(ctx, email, password)
	if err != nil {
		return snap, err
	}
	w.Projects.Reset()
	w.load(ctx)
	return w.Session.Snapshot(), nil
}

// Register creates an account without logging in.
func (w *Workspace) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	return w.Session.Register(ctx, req)
}

// Logout ends the session and drops everything cached for it.
func (w *Workspace) Logout() {
	w.Session.Logout()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Close()
		w.timer = nil
	}
	w.mu.Unlock()
	w.Projects.Reset()
}

// RequireSession restores the persisted session and fails when there is none.
func (w *Workspace) RequireSession(ctx context.Context) (session.Snapshot, error) {
	snap, err := w.Restore(ctx)
	if err != nil {
		return snap, err
	}
	if snap.State != session.Authenticated {
		return snap, session.ErrNotAuthenticated
	}
	return snap, nil
}

// Close releases the timer, the prober and the local database.
func (w *Workspace) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Close()
		w.timer = nil
	}
	w.mu.Unlock()
	w.Prober.Stop()
	return w.Local.Close()
}

// load refreshes the per-session stores. Failures are logged; the stores
// keep working from local state.
func (w *Workspace) load(ctx context.Context) {
	if err := w.Timer().Refresh(ctx); err != nil && !errors.Is(err, timer.ErrSessionEnded) {
		w.log.Warn().Err(err).Msg("timer refresh failed")
	}
	if _, err := w.Projects.Refresh(ctx); err != nil {
		w.log.Warn().Err(err).Msg("project refresh failed")
	}
}
