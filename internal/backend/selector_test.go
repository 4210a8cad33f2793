package backend

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/naveenspark/tempo/pkg/domain"
)

type fakeFlag struct {
	reachable atomic.Bool
	marked    atomic.Int32
}

func newFakeFlag(reachable bool) *fakeFlag {
	f := &fakeFlag{}
	f.reachable.Store(reachable)
	return f
}

func (f *fakeFlag) Reachable() bool { return f.reachable.Load() }

func (f *fakeFlag) MarkUnreachable() {
	f.marked.Add(1)
	f.reachable.Store(false)
}

// stubBackend answers StartTimer; every other method panics via the nil
// embedded interface.
type stubBackend struct {
	Backend
	name  string
	err   error
	calls atomic.Int32
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) StartTimer(_ context.Context, _ string, req domain.TimerStart) (*domain.TimeEntry, error) {
	b.calls.Add(1)
	if b.err != nil {
		return nil, b.err
	}
	return &domain.TimeEntry{ID: b.name + "-entry", Description: req.Description}, nil
}

func startVia(ctx context.Context, b Backend) (*domain.TimeEntry, error) {
	return b.StartTimer(ctx, "", domain.TimerStart{Description: "x"})
}

func TestSelector_PicksRemoteWhenReachable(t *testing.T) {
	remote := &stubBackend{name: "remote"}
	local := &stubBackend{name: "local"}
	s := NewSelector(remote, local, newFakeFlag(true), zerolog.Nop())

	e, used, err := Call(context.Background(), s, "start timer", "tok", startVia)
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if used != Backend(remote) || e.ID != "remote-entry" {
		t.Errorf("used %s (%s), want remote", used.Name(), e.ID)
	}
	if got := local.calls.Load(); got != 0 {
		t.Errorf("local calls = %d, want 0", got)
	}
}

func TestSelector_LocalTokenAlwaysLocal(t *testing.T) {
	remote := &stubBackend{name: "remote"}
	local := &stubBackend{name: "local"}
	s := NewSelector(remote, local, newFakeFlag(true), zerolog.Nop())

	_, used, err := Call(context.Background(), s, "start timer", LocalTokenPrefix+"abc", startVia)
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if used.Name() != "local" || remote.calls.Load() != 0 {
		t.Errorf("used %s with %d remote calls, want local only", used.Name(), remote.calls.Load())
	}
}

func TestSelector_UnreachableFlagSkipsRemote(t *testing.T) {
	remote := &stubBackend{name: "remote"}
	local := &stubBackend{name: "local"}
	s := NewSelector(remote, local, newFakeFlag(false), zerolog.Nop())

	_, used, _ := Call(context.Background(), s, "start timer", "tok", startVia)
	if used.Name() != "local" || remote.calls.Load() != 0 {
		t.Errorf("used %s with %d remote calls, want local only", used.Name(), remote.calls.Load())
	}
}

func TestSelector_FallsBackOnNetworkError(t *testing.T) {
	remote := &stubBackend{name: "remote", err: &UnreachableError{Op: "start timer", Err: errors.New("connection refused")}}
	local := &stubBackend{name: "local"}
	flag := newFakeFlag(true)
	s := NewSelector(remote, local, flag, zerolog.Nop())

	before := testutil.ToFloat64(fallbacksTotal.WithLabelValues("start timer"))

	e, used, err := Call(context.Background(), s, "start timer", "tok", startVia)
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if used.Name() != "local" || e.ID != "local-entry" {
		t.Errorf("used %s (%s), want local fallback", used.Name(), e.ID)
	}
	if flag.Reachable() || flag.marked.Load() != 1 {
		t.Errorf("flag reachable = %v, marked = %d, want false, 1", flag.Reachable(), flag.marked.Load())
	}
	if got := testutil.ToFloat64(fallbacksTotal.WithLabelValues("start timer")) - before; got != 1 {
		t.Errorf("fallbacks delta = %v, want 1", got)
	}
}

func TestSelector_RejectionIsNotRetried(t *testing.T) {
	remote := &stubBackend{name: "remote", err: &Rejection{Op: "start timer", Status: http.StatusBadRequest, Message: "You already have a running timer"}}
	local := &stubBackend{name: "local"}
	flag := newFakeFlag(true)
	s := NewSelector(remote, local, flag, zerolog.Nop())

	_, used, err := Call(context.Background(), s, "start timer", "tok", startVia)
	if !IsRejection(err, http.StatusBadRequest) {
		t.Fatalf("err = %v, want 400 rejection", err)
	}
	if used.Name() != "remote" || local.calls.Load() != 0 || !flag.Reachable() {
		t.Errorf("rejection must not fall back or touch the flag")
	}
}

func TestSelector_CallOnPinned(t *testing.T) {
	remote := &stubBackend{name: "remote"}
	local := &stubBackend{name: "local"}
	// Flag says unreachable, but the pinned backend wins.
	s := NewSelector(remote, local, newFakeFlag(false), zerolog.Nop())

	_, used, err := CallOn(context.Background(), s, remote, "stop timer", startVia)
	if err != nil {
		t.Fatalf("CallOn() error: %v", err)
	}
	if used.Name() != "remote" {
		t.Errorf("used %s, want pinned remote", used.Name())
	}
}

func TestSelector_CredentialRejected(t *testing.T) {
	remote := &stubBackend{name: "remote"}
	local := &stubBackend{name: "local"}
	s := NewSelector(remote, local, newFakeFlag(true), zerolog.Nop())
	unauthorized := &Rejection{Status: http.StatusUnauthorized, Message: "Could not validate credentials"}

	tests := []struct {
		name    string
		backend Backend
		token   string
		err     error
		want    bool
	}{
		{"remote 401", remote, "tok", unauthorized, true},
		{"local 401 for local token", local, LocalTokenPrefix + "x", unauthorized, true},
		{"local 401 for remote token", local, "tok", unauthorized, false},
		{"remote 404", remote, "tok", &Rejection{Status: http.StatusNotFound}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.CredentialRejected(tt.backend, tt.token, tt.err); got != tt.want {
				t.Errorf("CredentialRejected() = %v, want %v", got, tt.want)
			}
		})
	}
}
