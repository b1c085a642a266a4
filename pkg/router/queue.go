package router

import (
	"context"
	"sync"
)

type navJob struct {
	ctx  context.Context
	run  func(context.Context) error
	done DoneFunc
}

// dispatcher runs queued navigations one at a time in arrival order.
type dispatcher struct {
	jobs    chan navJob
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newDispatcher(size int) *dispatcher {
	d := &dispatcher{
		jobs:    make(chan navJob, size),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *dispatcher) loop() {
	defer close(d.stopped)
	for {
		// stop wins over queued work
		select {
		case <-d.quit:
			d.drain()
			return
		default:
		}

		select {
		case <-d.quit:
			d.drain()
			return
		case job := <-d.jobs:
			err := job.run(job.ctx)
			if job.done != nil {
				job.done(err)
			}
		}
	}
}

// drain fails every navigation still queued.
func (d *dispatcher) drain() {
	for {
		select {
		case job := <-d.jobs:
			if job.done != nil {
				job.done(ErrDestroyed)
			}
		default:
			return
		}
	}
}

// stop asks the loop to exit once the in-flight navigation completes. It
// does not wait, so it is safe to call from a handler.
func (d *dispatcher) stop() {
	d.once.Do(func() {
		close(d.quit)
	})
}

func (r *Router) enqueue(ctx context.Context, run func(context.Context) error, done DoneFunc, size int) error {
	r.queueMu.Lock()
	if r.queue == nil {
		r.queue = newDispatcher(size)
	}
	d := r.queue
	r.queueMu.Unlock()

	select {
	case d.jobs <- navJob{ctx: context.WithoutCancel(ctx), run: run, done: done}:
		return nil
	case <-d.quit:
		return ErrDestroyed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) stopDispatcher() {
	r.queueMu.Lock()
	d := r.queue
	r.queue = nil
	r.queueMu.Unlock()

	if d != nil {
		d.stop()
	}
}
