package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrStopped = errors.New("scheduler: dispatcher stopped")
	ErrSkipped = errors.New("scheduler: job discarded before it ran")
)

// Job is a unit of background work. Jobs sharing a Key run one at a time in
// submission order; different keys run concurrently.
type Job struct {
	Key string
	Run func(ctx context.Context) error
	// Done receives the result of Run, or ErrSkipped when the job was
	// discarded. It runs on the worker goroutine.
	Done func(err error)
}

// Dispatcher runs jobs on one worker goroutine per active key.
type Dispatcher struct {
	mu        sync.Mutex
	queues    map[string][]Job
	pending   int
	idle      chan struct{}
	stopped   bool
	discarded uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher() *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Dispatcher{
		queues: make(map[string][]Job),
		idle:   idle,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (d *Dispatcher) Submit(job Job) error {
	if job.Run == nil {
		return errors.New("scheduler: job has no run func")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}

	if d.pending == 0 {
		d.idle = make(chan struct{})
	}
	d.pending++

	q, active := d.queues[job.Key]
	d.queues[job.Key] = append(q, job)
	if !active {
		d.wg.Add(1)
		go d.drain(job.Key)
	}
	return nil
}

// Discard removes the jobs still queued under key and returns them without
// calling their Done funcs. A job already running is not affected.
func (d *Dispatcher) Discard(key string) []Job {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, ok := d.queues[key]
	if !ok || len(q) == 0 {
		return nil
	}
	d.queues[key] = nil
	atomic.AddUint64(&d.discarded, uint64(len(q)))
	d.release(len(q))
	return q
}

// Wait blocks until no job is queued or running, or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new jobs, cancels the context handed to running and queued
// jobs, and waits for every worker to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) Discarded() uint64 {
	return atomic.LoadUint64(&d.discarded)
}

func (d *Dispatcher) drain(key string) {
	defer d.wg.Done()
	for {
		job, ok := d.next(key)
		if !ok {
			return
		}

		err := job.Run(d.ctx)
		if job.Done != nil {
			job.Done(err)
		}

		d.mu.Lock()
		d.release(1)
		d.mu.Unlock()
	}
}

func (d *Dispatcher) next(key string) (Job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.queues[key]
	if len(q) == 0 {
		delete(d.queues, key)
		return Job{}, false
	}
	d.queues[key] = q[1:]
	return q[0], true
}

// release must be called with mu held.
func (d *Dispatcher) release(n int) {
	d.pending -= n
	if d.pending == 0 {
		close(d.idle)
	}
}
