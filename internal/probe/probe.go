// Package probe tracks whether the remote backend is reachable.
//
// A Prober checks the health endpoint on a fixed interval and caches the
// answer; stores read the cached flag instead of probing on every call.
package probe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 5 * time.Second
)

// HealthChecker is the request a probe issues. *client.Client satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Prober owns the reachability flag. The zero value is not usable; call New.
type Prober struct {
	hc       HealthChecker
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	reachable atomic.Bool

	mu   sync.Mutex
	stop func()
}

// New returns a prober that starts out reachable. Non-positive interval or
// timeout select the defaults.
func New(hc HealthChecker, interval, timeout time.Duration, log zerolog.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p := &Prober{
		hc:       hc,
		interval: interval,
		timeout:  timeout,
		log:      log.With().Str("component", "probe").Logger(),
	}
	p.reachable.Store(true)
	return p
}

// Reachable returns the last cached result.
func (p *Prober) Reachable() bool {
	return p.reachable.Load()
}

// MarkUnreachable records a network failure seen outside the probe loop.
func (p *Prober) MarkUnreachable() {
	p.set(false, "call failed")
}

// Probe checks the backend once and caches the result. It never fails:
// any error, timeout or non-2xx answer means unreachable.
func (p *Prober) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.hc.Health(ctx)
	ok := err == nil
	if ok {
		probesTotal.WithLabelValues("reachable").Inc()
	} else {
		probesTotal.WithLabelValues("unreachable").Inc()
		p.log.Debug().Err(err).Msg("health check failed")
	}
	p.set(ok, "probe")
	return ok
}

// Run probes immediately and then every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	p.Probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// Start runs the probe loop in a goroutine. A loop that is already running is
// replaced. The returned func stops the loop and waits for it to exit.
func (p *Prober) Start(ctx context.Context) (stop func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		p.stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	var once sync.Once
	p.stop = func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return p.stop
}

// Stop stops the loop started by Start, if any.
func (p *Prober) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.stop = nil
	p.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (p *Prober) set(ok bool, source string) {
	if prev := p.reachable.Swap(ok); prev != ok {
		transitionsTotal.WithLabelValues(label(ok)).Inc()
		p.log.Info().Bool("reachable", ok).Str("source", source).Msg("backend availability changed")
	}
}

func label(ok bool) string {
	if ok {
		return "reachable"
	}
	return "unreachable"
}
