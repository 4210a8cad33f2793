// Package timer holds the client-side timer state and the list of recently
// completed entries. Every operation changes local state first and then
// queues the matching backend call; calls run one at a time in the order the
// operations were issued.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/naveenspark/tempo/internal/backend"
	"github.com/naveenspark/tempo/pkg/domain"
)

// DefaultCapacity is how many completed entries Recent keeps.
const DefaultCapacity = 10

// Session is the part of the session store the timer needs.
type Session interface {
	Token() string
	Epoch() uint64
	HandleUnauthorized(epoch uint64)
}

// Snapshot is a consistent copy of the store for rendering.
type Snapshot struct {
	Timer  domain.TimerState
	Recent []domain.TimeEntry
	// Backend names the backend that accepted the running timer, if known.
	Backend string
}

// run tracks one started timer through its backend calls. serverID and
// backend are set once a backend accepts the start.
type run struct {
	localID  string
	serverID string
	backend  backend.Backend
	startErr error
}

func (r *run) id() string {
	if r.serverID != "" {
		return r.serverID
	}
	return r.localID
}

// Store is the timer store for one session. It is safe for concurrent use.
type Store struct {
	sel         *backend.Selector
	sess        Session
	epoch       uint64
	capacity    int
	callTimeout time.Duration
	now         func() time.Time
	log         zerolog.Logger
	q           *queue

	mu     sync.Mutex
	state  domain.TimerState
	cur    *run
	recent []domain.TimeEntry
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity sets how many completed entries are kept.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCallTimeout bounds each queued backend call.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// New returns an idle store bound to the session's current epoch. Call Close
// when the session ends.
func New(sel *backend.Selector, sess Session, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		sel:         sel,
		sess:        sess,
		epoch:       sess.Epoch(),
		capacity:    DefaultCapacity,
		callTimeout: 30 * time.Second,
		now:         time.Now,
		log:         log.With().Str("component", "timer").Logger(),
		state:       domain.IdleTimer(),
		recent:      []domain.TimeEntry{},
	}
	for _, o := range opts {
		o(s)
	}
	s.q = newQueue()
	return s
}

// Close discards queued work and stops the worker. Results of a call in
// flight are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.q.close()
}

// Timer returns the current timer state.
func (s *Store) Timer() domain.TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Recent returns the completed entries, most recent first.
func (s *Store) Recent() []domain.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TimeEntry(nil), s.recent...)
}

// Snapshot returns the timer and recent entries together.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Timer:  copyState(s.state),
		Recent: append([]domain.TimeEntry(nil), s.recent...),
	}
	if s.cur != nil && s.cur.backend != nil {
		snap.Backend = s.cur.backend.Name()
	}
	return snap
}

// Elapsed returns how long the timer has been running at now.
func (s *Store) Elapsed(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Elapsed(now)
}

// Watch calls fn once a second with the timer state and its elapsed time
// until ctx is done. Ticks while idle are skipped.
func (s *Store) Watch(ctx context.Context, fn func(domain.TimerState, time.Duration)) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.mu.Lock()
			st := copyState(s.state)
			el := s.state.Elapsed(s.now())
			s.mu.Unlock()
			if st.IsRunning {
				fn(st, el)
			}
		}
	}
}

// StartAsync marks a new timer running immediately and queues the backend
// start. It fails without queuing anything when a timer is already running.
func (s *Store) StartAsync(ctx context.Context, projectID *string, description string, tags []string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionEnded
	}
	if s.state.IsRunning {
		return nil, &AlreadyRunningError{EntryID: s.state.EntryID, Description: s.state.Description}
	}

	r := &run{localID: uuid.NewString()}
	s.cur = r
	s.state = domain.TimerState{
		EntryID:     r.localID,
		Description: description,
		StartTime:   s.now(),
		ProjectID:   copyID(projectID),
		Tags:        domain.NormalizeTags(tags),
		IsRunning:   true,
	}
	req := domain.TimerStart{
		Description: description,
		ProjectID:   copyID(projectID),
		Tags:        domain.NormalizeTags(tags),
	}
	return s.enqueue(ctx, "start", func(ctx context.Context) (domain.TimeEntry, error) {
		return s.syncStart(ctx, r, req)
	}), nil
}

// Start is StartAsync followed by waiting for the backend.
func (s *Store) Start(ctx context.Context, projectID *string, description string, tags []string) (domain.TimeEntry, error) {
	p, err := s.StartAsync(ctx, projectID, description, tags)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	return p.Wait(ctx)
}

func (s *Store) syncStart(ctx context.Context, r *run, req domain.TimerStart) (domain.TimeEntry, error) {
	token, ok := s.token()
	if !ok {
		return domain.TimeEntry{}, ErrSessionEnded
	}
	got, used, err := backend.Call(ctx, s.sel, "start timer", token,
		func(ctx context.Context, b backend.Backend) (*domain.TimeEntry, error) {
			return b.StartTimer(ctx, token, req)
		})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleLocked() {
		return domain.TimeEntry{}, ErrSessionEnded
	}
	if err != nil {
		r.startErr = err
		if s.cur == r {
			s.cur = nil
			s.state = domain.IdleTimer()
		}
		s.failed(used, token, err)
		return domain.TimeEntry{}, err
	}

	r.serverID = got.ID
	r.backend = used
	if s.cur == r {
		s.state.EntryID = got.ID
		s.state.StartTime = got.StartTime
	}
	// The timer may already have been stopped locally.
	for i := range s.recent {
		if s.recent[i].ID == r.localID {
			s.recent[i].ID = got.ID
		}
	}
	s.log.Debug().Str("entry_id", got.ID).Str("backend", used.Name()).Msg("timer started")
	return *got, nil
}

// UpdateAsync applies u to the running timer and queues the backend update.
// It does nothing when no timer is running. Only description, project, tags
// and start time apply to a running timer.
func (s *Store) UpdateAsync(ctx context.Context, u domain.TimeEntryUpdate) (*Pending, error) {
	u.EndTime = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionEnded
	}
	if !s.state.IsRunning || u.Empty() {
		return resolved(domain.TimeEntry{}, nil), nil
	}

	if u.Description != nil {
		s.state.Description = *u.Description
	}
	if u.ProjectID != nil {
		s.state.ProjectID = nil
		if *u.ProjectID != "" {
			s.state.ProjectID = copyID(u.ProjectID)
		}
	}
	if u.Tags != nil {
		u.Tags = domain.NormalizeTags(u.Tags)
		s.state.Tags = append([]string(nil), u.Tags...)
	}
	if u.StartTime != nil {
		s.state.StartTime = *u.StartTime
	}

	r := s.cur
	return s.enqueue(ctx, "update", func(ctx context.Context) (domain.TimeEntry, error) {
		return s.syncUpdate(ctx, r, u)
	}), nil
}

// Update is UpdateAsync followed by waiting for the backend. A backend
// failure is returned but the local change stays.
func (s *Store) Update(ctx context.Context, u domain.TimeEntryUpdate) (domain.TimeEntry, error) {
	p, err := s.UpdateAsync(ctx, u)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	return p.Wait(ctx)
}

func (s *Store) syncUpdate(ctx context.Context, r *run, u domain.TimeEntryUpdate) (domain.TimeEntry, error) {
	s.mu.Lock()
	startErr, id, pinned := r.startErr, r.id(), r.backend
	s.mu.Unlock()
	if startErr != nil {
		// The start never took; there is nothing to update.
		return domain.TimeEntry{}, nil
	}

	token, ok := s.token()
	if !ok {
		return domain.TimeEntry{}, ErrSessionEnded
	}
	got, used, err := backend.CallOn(ctx, s.sel, s.route(pinned, token), "update entry",
		func(ctx context.Context, b backend.Backend) (*domain.TimeEntry, error) {
			return b.UpdateEntry(ctx, token, id, u)
		})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleLocked() {
		return domain.TimeEntry{}, ErrSessionEnded
	}
	if err != nil {
		s.failed(used, token, err)
		return domain.TimeEntry{}, err
	}
	return *got, nil
}

// StopAsync records the completed entry locally, resets the timer and
// queues the backend stop.
func (s *Store) StopAsync(ctx context.Context) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionEnded
	}
	if !s.state.IsRunning {
		return nil, &NotRunningError{}
	}

	now := s.now()
	r := s.cur
	running := domain.TimeEntry{
		ID:          r.id(),
		Description: s.state.Description,
		StartTime:   s.state.StartTime,
		ProjectID:   copyID(s.state.ProjectID),
		Tags:        append([]string{}, s.state.Tags...),
		CreatedAt:   s.state.StartTime,
	}
	done := running
	done.Complete(now)
	s.prependLocked(done)
	s.state = domain.IdleTimer()
	s.cur = nil

	return s.enqueue(ctx, "stop", func(ctx context.Context) (domain.TimeEntry, error) {
		return s.syncStop(ctx, r, running, done)
	}), nil
}

// Stop is StopAsync followed by waiting for the backend. It returns the
// completed entry as the backend recorded it.
func (s *Store) Stop(ctx context.Context) (domain.TimeEntry, error) {
	p, err := s.StopAsync(ctx)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	return p.Wait(ctx)
}

func (s *Store) syncStop(ctx context.Context, r *run, running, local domain.TimeEntry) (domain.TimeEntry, error) {
	s.mu.Lock()
	startErr, pinned := r.startErr, r.backend
	running.ID = r.id()
	s.mu.Unlock()
	if startErr != nil {
		s.mu.Lock()
		s.removeLocked(r.localID)
		s.mu.Unlock()
		return domain.TimeEntry{}, startErr
	}

	token, ok := s.token()
	if !ok {
		return domain.TimeEntry{}, ErrSessionEnded
	}
	got, used, err := backend.CallOn(ctx, s.sel, s.route(pinned, token), "stop timer",
		func(ctx context.Context, b backend.Backend) (*domain.TimeEntry, error) {
			return b.StopTimer(ctx, token, running)
		})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleLocked() {
		return domain.TimeEntry{}, ErrSessionEnded
	}
	if err != nil {
		// The locally recorded entry stays in Recent.
		s.failed(used, token, err)
		return domain.TimeEntry{}, err
	}

	entry := *got
	if entry.Duration == nil {
		entry.Duration = local.Duration
	}
	if entry.EndTime == nil {
		entry.EndTime = local.EndTime
	}
	replaced := false
	for i := range s.recent {
		if s.recent[i].ID == running.ID || s.recent[i].ID == r.localID {
			s.recent[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		s.prependLocked(entry)
	}
	s.log.Debug().Str("entry_id", entry.ID).Str("backend", used.Name()).Msg("timer stopped")
	return entry, nil
}

// Refresh replaces the local view with the backend's running timer and
// recent entries. It is queued behind pending operations.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	p := s.enqueue(ctx, "refresh", func(ctx context.Context) (domain.TimeEntry, error) {
		return domain.TimeEntry{}, s.syncRefresh(ctx)
	})
	s.mu.Unlock()
	_, err := p.Wait(ctx)
	return err
}

func (s *Store) syncRefresh(ctx context.Context) error {
	token, ok := s.token()
	if !ok {
		return ErrSessionEnded
	}
	current, used, err := backend.Call(ctx, s.sel, "current timer", token,
		func(ctx context.Context, b backend.Backend) (*domain.TimeEntry, error) {
			return b.CurrentTimer(ctx, token)
		})
	if err != nil {
		s.mu.Lock()
		s.failed(used, token, err)
		s.mu.Unlock()
		return err
	}
	entries, used, err := backend.CallOn(ctx, s.sel, used, "list entries",
		func(ctx context.Context, b backend.Backend) ([]domain.TimeEntry, error) {
			return b.ListEntries(ctx, token, 0, s.capacity+1)
		})
	if err != nil {
		s.mu.Lock()
		s.failed(used, token, err)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleLocked() {
		return ErrSessionEnded
	}
	if current != nil && current.Running() {
		s.state = domain.TimerFromEntry(*current)
		s.cur = &run{localID: current.ID, serverID: current.ID, backend: used}
	} else {
		s.state = domain.IdleTimer()
		s.cur = nil
	}
	recent := make([]domain.TimeEntry, 0, s.capacity)
	for _, e := range entries {
		if e.Running() {
			continue
		}
		recent = append(recent, e)
		if len(recent) == s.capacity {
			break
		}
	}
	s.recent = recent
	return nil
}

// Entries pages through the session's entries, most recent first.
func (s *Store) Entries(ctx context.Context, skip, limit int) ([]domain.TimeEntry, error) {
	token := s.sess.Token()
	entries, used, err := backend.Call(ctx, s.sel, "list entries", token,
		func(ctx context.Context, b backend.Backend) ([]domain.TimeEntry, error) {
			return b.ListEntries(ctx, token, skip, limit)
		})
	if err != nil {
		s.mu.Lock()
		s.failed(used, token, err)
		s.mu.Unlock()
		return nil, err
	}
	return entries, nil
}

// EditEntry updates a completed entry and refreshes it in Recent.
func (s *Store) EditEntry(ctx context.Context, id string, u domain.TimeEntryUpdate) (domain.TimeEntry, error) {
	if u.Tags != nil {
		u.Tags = domain.NormalizeTags(u.Tags)
	}
	token := s.sess.Token()
	got, used, err := backend.Call(ctx, s.sel, "update entry", token,
		func(ctx context.Context, b backend.Backend) (*domain.TimeEntry, error) {
			return b.UpdateEntry(ctx, token, id, u)
		})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed(used, token, err)
		return domain.TimeEntry{}, err
	}
	if s.staleLocked() {
		return domain.TimeEntry{}, ErrSessionEnded
	}
	for i := range s.recent {
		if s.recent[i].ID == id {
			s.recent[i] = *got
		}
	}
	return *got, nil
}

// DeleteEntry removes an entry from the backend and from Recent.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	token := s.sess.Token()
	used, err := backend.Do(ctx, s.sel, "delete entry", token,
		func(ctx context.Context, b backend.Backend) error {
			return b.DeleteEntry(ctx, token, id)
		})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed(used, token, err)
		return err
	}
	if !s.staleLocked() {
		s.removeLocked(id)
	}
	return nil
}

// enqueue must be called with s.mu held so queue order matches the order of
// the local state changes.
func (s *Store) enqueue(ctx context.Context, op string, fn func(context.Context) (domain.TimeEntry, error)) *Pending {
	p := newPending()
	s.q.push(job{
		ctx:     context.WithoutCancel(ctx),
		pending: p,
		run: func(ctx context.Context) (domain.TimeEntry, error) {
			ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
			defer cancel()
			e, err := fn(ctx)
			opsTotal.WithLabelValues(op, outcome(err)).Inc()
			return e, err
		},
	})
	return p
}

// token returns the session token, or false when the session this store
// belongs to is over.
func (s *Store) token() (string, bool) {
	s.mu.Lock()
	stale := s.staleLocked()
	s.mu.Unlock()
	if stale {
		return "", false
	}
	return s.sess.Token(), true
}

func (s *Store) staleLocked() bool {
	return s.closed || s.sess.Epoch() != s.epoch
}

// route picks the backend for a call on an existing timer. Local tokens
// always go local.
func (s *Store) route(pinned backend.Backend, token string) backend.Backend {
	if backend.IsLocalToken(token) || pinned == nil {
		return s.sel.Pick(token)
	}
	return pinned
}

// failed logs err and ends the session if the backend rejected its
// credential. Called with s.mu held.
func (s *Store) failed(used backend.Backend, token string, err error) {
	if used != nil && s.sel.CredentialRejected(used, token, err) {
		s.log.Warn().Err(err).Msg("credential rejected")
		s.sess.HandleUnauthorized(s.epoch)
		return
	}
	s.log.Warn().Err(err).Msg("backend call failed")
}

func (s *Store) prependLocked(e domain.TimeEntry) {
	s.recent = append([]domain.TimeEntry{e}, s.recent...)
	if len(s.recent) > s.capacity {
		s.recent = s.recent[:s.capacity]
	}
}

func (s *Store) removeLocked(id string) {
	out := s.recent[:0]
	for _, e := range s.recent {
		if e.ID != id {
			out = append(out, e)
		}
	}
	s.recent = out
}

func copyState(st domain.TimerState) domain.TimerState {
	st.ProjectID = copyID(st.ProjectID)
	st.Tags = append([]string{}, st.Tags...)
	return st
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
