package timer

import (
	"context"
	"sync"

	"github.com/naveenspark/tempo/pkg/domain"
)

// Pending is the backend half of a timer operation. The local state change
// has already happened when a Pending is handed out.
type Pending struct {
	done  chan struct{}
	entry domain.TimeEntry
	err   error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolved(entry domain.TimeEntry, err error) *Pending {
	p := newPending()
	p.finish(entry, err)
	return p
}

func (p *Pending) finish(entry domain.TimeEntry, err error) {
	p.entry, p.err = entry, err
	close(p.done)
}

// Done is closed once the backend call has completed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the backend answers or ctx is done. Giving up on the
// wait does not cancel the queued call.
func (p *Pending) Wait(ctx context.Context) (domain.TimeEntry, error) {
	select {
	case <-p.done:
		return p.entry, p.err
	case <-ctx.Done():
		return domain.TimeEntry{}, ctx.Err()
	}
}

type job struct {
	ctx     context.Context
	pending *Pending
	run     func(ctx context.Context) (domain.TimeEntry, error)
}

// queue is an unbounded FIFO drained by a single worker goroutine, so
// backend calls happen in the order the operations were issued.
type queue struct {
	mu     sync.Mutex
	items  []job
	wake   chan struct{}
	done   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

func newQueue() *queue {
	q := &queue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.work()
	return q
}

// push enqueues j. It never blocks. After close the job fails immediately.
func (q *queue) push(j job) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		j.pending.finish(domain.TimeEntry{}, ErrSessionEnded)
		return
	}
	q.items = append(q.items, j)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue) pop() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return job{}, false
	}
	j := q.items[0]
	q.items[0] = job{}
	q.items = q.items[1:]
	return j, true
}

func (q *queue) work() {
	defer q.wg.Done()
	for {
		for {
			j, ok := q.pop()
			if !ok {
				break
			}
			q.runJob(j)
		}
		select {
		case <-q.wake:
		case <-q.done:
			q.drain()
			return
		}
	}
}

func (q *queue) runJob(j job) {
	select {
	case <-q.done:
		j.pending.finish(domain.TimeEntry{}, ErrSessionEnded)
		return
	default:
	}
	entry, err := j.run(j.ctx)
	j.pending.finish(entry, err)
}

// drain fails whatever is still queued.
func (q *queue) drain() {
	for {
		j, ok := q.pop()
		if !ok {
			return
		}
		j.pending.finish(domain.TimeEntry{}, ErrSessionEnded)
	}
}

// close stops the worker after the job in flight, if any, and fails the rest.
func (q *queue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
	q.wg.Wait()
}
