package backend

import (
	"context"

	"github.com/rs/zerolog"
)

// Reachability is the cached availability flag maintained by the prober.
type Reachability interface {
	Reachable() bool
	MarkUnreachable()
}

// Selector chooses the backend for each call.
type Selector struct {
	remote Backend
	local  Backend
	flag   Reachability
	log    zerolog.Logger
}

// NewSelector returns a selector over remote and local.
func NewSelector(remote, local Backend, flag Reachability, log zerolog.Logger) *Selector {
	return &Selector{
		remote: remote,
		local:  local,
		flag:   flag,
		log:    log.With().Str("component", "selector").Logger(),
	}
}

// Remote returns the remote backend.
func (s *Selector) Remote() Backend { return s.remote }

// Local returns the local backend.
func (s *Selector) Local() Backend { return s.local }

// Reachable reports the cached flag.
func (s *Selector) Reachable() bool { return s.flag.Reachable() }

// Pick returns the backend a call with token should go to: local for local
// credentials or while the remote is marked unreachable, remote otherwise.
func (s *Selector) Pick(token string) Backend {
	if IsLocalToken(token) || !s.flag.Reachable() {
		return s.local
	}
	return s.remote
}

// Call runs fn on the backend picked for token. If the remote turns out to be
// unreachable the flag is updated and fn is re-run on the local backend. The
// backend that produced the result is returned alongside it.
func Call[T any](ctx context.Context, s *Selector, op, token string, fn func(context.Context, Backend) (T, error)) (T, Backend, error) {
	return CallOn(ctx, s, s.Pick(token), op, fn)
}

// CallOn is Call with the first backend chosen by the caller, e.g. the backend
// that accepted a timer start.
func CallOn[T any](ctx context.Context, s *Selector, b Backend, op string, fn func(context.Context, Backend) (T, error)) (T, Backend, error) {
	if b == nil {
		b = s.local
	}
	v, err := fn(ctx, b)
	callsTotal.WithLabelValues(b.Name(), outcome(err)).Inc()
	if err == nil || b == s.local || !IsUnreachable(err) {
		return v, b, err
	}

	s.flag.MarkUnreachable()
	fallbacksTotal.WithLabelValues(op).Inc()
	s.log.Warn().Err(err).Str("op", op).Msg("remote unreachable, using local backend")

	v, err = fn(ctx, s.local)
	callsTotal.WithLabelValues(s.local.Name(), outcome(err)).Inc()
	return v, s.local, err
}

// Do is Call for operations without a result.
func Do(ctx context.Context, s *Selector, op, token string, fn func(context.Context, Backend) error) (Backend, error) {
	_, b, err := Call(ctx, s, op, token, func(ctx context.Context, b Backend) (struct{}, error) {
		return struct{}{}, fn(ctx, b)
	})
	return b, err
}

// CredentialRejected reports whether err from b means the session credential
// is dead. A local backend refusing a remotely issued token only means it
// never saw that token, so it does not count.
func (s *Selector) CredentialRejected(b Backend, token string, err error) bool {
	if !IsUnauthorized(err) {
		return false
	}
	return b == s.remote || IsLocalToken(token)
}
