package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/naveenspark/tempo/pkg/client"
)

type checkFunc func(ctx context.Context) error

func (f checkFunc) Health(ctx context.Context) error { return f(ctx) }

func TestProbe_InitiallyReachable(t *testing.T) {
	p := New(checkFunc(func(context.Context) error { return nil }), 0, 0, zerolog.Nop())
	if !p.Reachable() {
		t.Error("new prober should start reachable")
	}
}

func TestProbe_FailureMarksUnreachable(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	p := New(checkFunc(func(context.Context) error {
		if fail.Load() {
			return errors.New("connection refused")
		}
		return nil
	}), time.Hour, time.Second, zerolog.Nop())

	before := testutil.ToFloat64(transitionsTotal.WithLabelValues("unreachable"))
	if p.Probe(context.Background()) {
		t.Fatal("Probe() = true, want false")
	}
	if p.Reachable() {
		t.Error("Reachable() = true after failed probe")
	}
	if got := testutil.ToFloat64(transitionsTotal.WithLabelValues("unreachable")) - before; got != 1 {
		t.Errorf("transitions delta = %v, want 1", got)
	}

	fail.Store(false)
	if !p.Probe(context.Background()) || !p.Reachable() {
		t.Error("probe should recover once the backend answers")
	}
}

func TestProbe_TimeoutIsUnreachable(t *testing.T) {
	p := New(checkFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), time.Hour, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	if p.Probe(context.Background()) {
		t.Fatal("Probe() = true, want false on timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("probe took %v, want it bounded by the timeout", elapsed)
	}
}

func TestProbe_HTTPHealth(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, "", client.WithRetryMaxElapsed(0))
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	p := New(c, time.Hour, time.Second, zerolog.Nop())

	if !p.Probe(context.Background()) {
		t.Error("Probe() = false for 200 response")
	}
	status.Store(http.StatusServiceUnavailable)
	if p.Probe(context.Background()) {
		t.Error("Probe() = true for 503 response")
	}
}

func TestProbe_StartAndStop(t *testing.T) {
	var calls atomic.Int32
	p := New(checkFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}), 10*time.Millisecond, time.Second, zerolog.Nop())

	stop := p.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	stop()
	stop() // idempotent

	n := calls.Load()
	if n < 3 {
		t.Fatalf("calls = %d, want at least 3", n)
	}
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != n {
		t.Errorf("calls grew from %d to %d after stop", n, got)
	}
}

func TestProbe_MarkUnreachable(t *testing.T) {
	p := New(checkFunc(func(context.Context) error { return nil }), time.Hour, time.Second, zerolog.Nop())
	p.MarkUnreachable()
	if p.Reachable() {
		t.Error("Reachable() = true after MarkUnreachable")
	}
}
