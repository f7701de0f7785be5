// Package worker runs inbound chat events concurrently while keeping the
// events of one participant in arrival order.
package worker

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker: pool closed")

// Job is one unit of work.  It receives the pool's job context, which stays
// live after the parent passed to New is cancelled and ends only when
// Shutdown gives up waiting.
type Job func(ctx context.Context)

// Pool executes jobs with bounded concurrency.  Jobs submitted under the
// same key form a lane and run one at a time in submission order, so a
// participant's session has a single writer.  Different lanes run in
// parallel up to the concurrency limit.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted
	mu     sync.Mutex
	lanes  map[int64][]Job
	wg     sync.WaitGroup
	done   bool
}

// New returns a Pool running at most concurrency jobs at once.  Jobs see
// the values of ctx but not its cancellation.
func New(ctx context.Context, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Pool{
		ctx:    jobCtx,
		cancel: cancel,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		lanes:  make(map[int64][]Job),
	}
}

// Submit queues job on the lane for key and returns immediately.
func (p *Pool) Submit(key int64, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return ErrClosed
	}
	if q, busy := p.lanes[key]; busy {
		p.lanes[key] = append(q, job)
		return nil
	}
	p.lanes[key] = []Job{job}
	p.wg.Add(1)
	go p.drain(key)
	return nil
}

// drain runs the lane for key until it is empty.  The lane entry stays in
// the map while the goroutine is alive so Submit appends instead of
// starting a second runner.
func (p *Pool) drain(key int64) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		q := p.lanes[key]
		if len(q) == 0 {
			delete(p.lanes, key)
			p.mu.Unlock()
			return
		}
		job := q[0]
		p.lanes[key] = q[1:]
		p.mu.Unlock()

		// Acquire only fails once Shutdown has given up; the job still
		// runs and sees the cancelled context.
		acquired := p.sem.Acquire(p.ctx, 1) == nil
		p.run(key, job)
		if acquired {
			p.sem.Release(1)
		}
	}
}

func (p *Pool) run(key int64, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("worker: job for %d panicked: %v\n%s", key, r, debug.Stack())
		}
	}()
	job(p.ctx)
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() { _ = p.Shutdown(context.Background()) }

// Shutdown stops accepting jobs and waits for queued ones to finish with
// a live context.  When ctx ends first the job context is cancelled, the
// remaining jobs run against it and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()
	defer p.cancel()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		p.cancel()
		<-drained
		return ctx.Err()
	}
}
